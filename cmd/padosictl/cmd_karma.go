package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/23f2003700/padosi-politics/internal/models"
	"github.com/23f2003700/padosi-politics/internal/scheduler"
	"github.com/23f2003700/padosi-politics/internal/services"
)

var karmaCmd = &cobra.Command{
	Use:   "karma",
	Short: "Karma ledger maintenance",
}

var bonusFlags struct {
	month string
}

var monthlyBonusCmd = &cobra.Command{
	Use:   "monthly-bonus",
	Short: "Award the monthly karma bonus for a month (default: previous month)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		month := scheduler.PreviousMonth(time.Now())
		if bonusFlags.month != "" {
			m, err := time.Parse("2006-01", bonusFlags.month)
			if err != nil {
				return fmt.Errorf("--month must be YYYY-MM: %w", err)
			}
			month = m
		}
		awarded, err := env.svc.Jobs.ApplyMonthlyKarmaBonus(cmd.Context(), month)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: awarded %d bonuses\n", month.Format("2006-01"), awarded)
		return nil
	},
}

var verifyFlags struct {
	society string
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check every cached karma score against its ledger",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func init() {
	monthlyBonusCmd.Flags().StringVar(&bonusFlags.month, "month", "", "month to reward, YYYY-MM")
	verifyCmd.Flags().StringVar(&verifyFlags.society, "society", "", "society ID (default: all societies)")
	karmaCmd.AddCommand(monthlyBonusCmd)
	karmaCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	var ids []uuid.UUID
	if verifyFlags.society != "" {
		id, err := uuid.Parse(verifyFlags.society)
		if err != nil {
			return fmt.Errorf("--society: %w", err)
		}
		ids = append(ids, id)
	} else if err := env.db.WithContext(cmd.Context()).Model(&models.Society{}).Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("load societies: %w", err)
	}

	drift := map[string][]services.LedgerDrift{}
	for _, id := range ids {
		d, err := env.svc.Karma.VerifyLedger(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(d) > 0 {
			drift[id.String()] = d
		}
	}
	if len(drift) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "ledger consistent across %d societies\n", len(ids))
		return nil
	}
	if err := printJSON(cmd.OutOrStdout(), drift); err != nil {
		return err
	}
	return fmt.Errorf("karma drift in %d societies", len(drift))
}
