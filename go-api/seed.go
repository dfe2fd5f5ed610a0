package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/catalog"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/generator"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/lifecycle"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/models"
	"github.com/mjoel10/LaunchClarityValidator-sub000/internal/store"
)

const demoEmail = "demo@launchclarity.dev"

var (
	seedPassword string
	seedTier     string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo consultant with one paid, partly generated sprint",
	Long: `Seeds a demo consultant (` + demoEmail + `), a client and an active sprint
whose discovery modules are filled with canned analyses. Running it again
reuses the existing demo account and leaves its sprints alone.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(os.Getenv)
		if err != nil {
			return err
		}
		tier, err := catalog.ParseTier(seedTier)
		if err != nil {
			return err
		}
		st, closeDB, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closeDB()

		sp, err := seedDemo(cmd.Context(), st, seedPassword, tier, logger)
		if err != nil {
			return err
		}
		if sp == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "demo data already present")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seeded sprint %s (%s, %d%% complete); sign in as %s\n",
			sp.ID, sp.Tier, sp.Progress, demoEmail)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "demo-password", "Password for the demo consultant")
	seedCmd.Flags().StringVar(&seedTier, "tier", string(catalog.TierFeasibility), "Tier of the demo sprint")
}

// seedDemo creates the demo data through the same store and lifecycle calls
// the API uses. It returns nil when the demo consultant already has sprints.
func seedDemo(ctx context.Context, st *store.Store, password string, tier catalog.Tier, log *zap.Logger) (*models.Sprint, error) {
	if log == nil {
		log = zap.NewNop()
	}
	consultant, err := st.UserByEmail(ctx, demoEmail)
	switch {
	case errors.Is(err, store.ErrNotFound):
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		consultant = models.User{
			Email:        demoEmail,
			Username:     "demo",
			Name:         "Demo Consultant",
			PasswordHash: string(hash),
			IsConsultant: true,
		}
		if err := st.CreateUser(ctx, &consultant); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		existing, err := st.ListSprints(ctx, consultant.ID)
		if err != nil {
			return nil, err
		}
		if len(existing) > 0 {
			return nil, nil
		}
	}

	client, err := st.FindOrCreateClient(ctx, "Dana Rivera", "dana@harborbrew.example")
	if err != nil {
		return nil, err
	}
	sp, err := st.CreateSprint(ctx, store.NewSprint{
		ClientID:     client.ID,
		ConsultantID: consultant.ID,
		CompanyName:  "Harbor Brew Co.",
		Tier:         tier,
	})
	if err != nil {
		return nil, err
	}
	if _, err := st.AdvanceStatus(ctx, sp.ID, models.StatusActive, map[string]any{"paid_at": time.Now().UTC()}); err != nil {
		return nil, err
	}

	intake := models.IntakeData{
		BusinessModel:    "B2C subscription",
		ProductType:      "Physical product",
		Stage:            "Idea",
		Industry:         "Specialty coffee",
		TargetCustomer:   "Remote workers in coastal towns",
		ProblemStatement: "Good coffee is hard to get delivered fresh outside big cities.",
		Solution:         "Weekly roasted-to-order deliveries from a local micro-roastery.",
	}
	if intake.Competitors, err = jsonList([]string{"Trade Coffee", "Local cafes"}); err != nil {
		return nil, err
	}
	if intake.Assumptions, err = jsonList([]string{"Customers will pay a 20% premium for freshness"}); err != nil {
		return nil, err
	}
	if intake.ValidationGoals, err = jsonList([]string{"Confirm willingness to subscribe"}); err != nil {
		return nil, err
	}
	if intake, _, err = st.UpsertIntake(ctx, sp.ID, intake); err != nil {
		return nil, err
	}

	mgr := lifecycle.New(st, log)
	if _, err := mgr.InitializeModules(ctx, sp.ID, tier); err != nil {
		return nil, err
	}
	gen := generator.Stub{}
	for _, mt := range catalog.All() {
		if mt.MinTier() != catalog.TierDiscovery || mt == catalog.PartnershipViability {
			continue
		}
		content, err := gen.Generate(ctx, mt, intake)
		if err != nil {
			return nil, err
		}
		if _, err := mgr.CompleteModule(ctx, sp.ID, mt, content); err != nil {
			return nil, fmt.Errorf("seed %s: %w", mt, err)
		}
	}

	out, err := st.GetSprint(ctx, sp.ID)
	if err != nil {
		return nil, err
	}
	log.Info("demo data seeded", zap.String("sprint", out.ID), zap.Int("progress", out.Progress))
	return &out, nil
}
