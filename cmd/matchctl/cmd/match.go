package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dishbook/backend/internal/app"
	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/usecase"
)

var matchUser string

var matchCmd = &cobra.Command{
	Use:   "match [recipe.json]",
	Short: "Match a recognized recipe against the catalog",
	Long: "Reads a recognized recipe ({name, ingredients, tags}) from a file or stdin\n" +
		"and prints one decision per ingredient with its review status.",
	Args: cobra.MaximumNArgs(1),
	RunE: runMatch,
}

func init() {
	matchCmd.Flags().StringVarP(&matchUser, "user", "u", "cli", "Owner whose private products are visible")
}

type matchLine struct {
	domain.MatchDecision
	Status usecase.ReviewStatus `json:"status"`
}

type matchOutput struct {
	Name    string       `json:"name"`
	Matches []matchLine  `json:"matches"`
	Tags    []domain.Tag `json:"tags"`
}

func runMatch(cmd *cobra.Command, args []string) error {
	var path string
	if len(args) == 1 {
		path = args[0]
	}

	var recipe domain.RecognizedRecipe
	if err := readJSON(path, cmd.InOrStdin(), &recipe); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	services, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer services.Close()

	out, err := matchRecipe(ctx, services.Matching, services.Catalog, matchUser, recipe)
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), out)
}

func matchRecipe(
	ctx context.Context,
	matching *usecase.MatchingService,
	repo domain.CatalogRepository,
	userID string,
	recipe domain.RecognizedRecipe,
) (*matchOutput, error) {
	products, err := repo.ListProducts(ctx, userID)
	if err != nil {
		return nil, err
	}
	tags, err := repo.ListTags(ctx, userID)
	if err != nil {
		return nil, err
	}

	decisions := matching.MatchAll(ctx, recipe.Ingredients, products)

	out := &matchOutput{
		Name:    recipe.Name,
		Matches: make([]matchLine, 0, len(decisions)),
		Tags:    usecase.ResolveTags(recipe.Tags, tags),
	}
	for _, d := range decisions {
		out.Matches = append(out.Matches, matchLine{MatchDecision: d, Status: usecase.Status(d)})
	}
	return out, nil
}
