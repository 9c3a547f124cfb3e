package cmd

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/dishbook/backend/internal/app"
	"github.com/dishbook/backend/internal/domain"
)

var (
	verifyCandidates []string
	verifyScore      float64
)

var verifyCmd = &cobra.Command{
	Use:     "verify <recognized name>",
	Short:   "Ask the semantic verifier about one ambiguous match",
	Example: "  matchctl verify \"ser zolty\" --candidate p4=\"Ser żółty\" --score 0.4",
	Args:    cobra.ExactArgs(1),
	RunE:    runVerify,
}

func init() {
	verifyCmd.Flags().StringArrayVarP(&verifyCandidates, "candidate", "c", nil, "Candidate as id=name (repeatable)")
	verifyCmd.Flags().Float64VarP(&verifyScore, "score", "s", 0.4, "Fuzzy match score of the best candidate")
}

// parseCandidates reads id=name pairs
func parseCandidates(raw []string) ([]domain.Candidate, error) {
	candidates := make([]domain.Candidate, 0, len(raw))
	for _, r := range raw {
		id, name, ok := strings.Cut(r, "=")
		id, name = strings.TrimSpace(id), strings.TrimSpace(name)
		if !ok || id == "" || name == "" {
			return nil, errors.Newf("candidate %q must look like id=name", r)
		}
		candidates = append(candidates, domain.Candidate{ID: id, Name: name})
	}
	return candidates, nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	candidates, err := parseCandidates(verifyCandidates)
	if err != nil {
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

	if services.Verifier == nil {
		return errors.New("verifier is off (verifier.mode = off)")
	}

	verification, err := services.Verifier.Verify(ctx, domain.VerificationRequest{
		RecognizedName: args[0],
		Candidates:     candidates,
		MatchScore:     verifyScore,
	})
	if err != nil {
		return err
	}
	return writeJSON(cmd.OutOrStdout(), verification)
}
