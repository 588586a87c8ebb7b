package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yigit/admissions/internal/pkg/amountwords"
	"github.com/yigit/admissions/internal/pkg/tuition"
)

func quoteCmd() *cobra.Command {
	var level, field, duration string

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print the tuition breakdown for a degree level and field",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := tuition.NewQuote(level, field, duration)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Level:           %s\n", q.DegreeLevel)
			fmt.Fprintf(out, "Field:           %s\n", q.Field)
			fmt.Fprintf(out, "Gross fee:       %d\n", q.GrossFee)
			fmt.Fprintf(out, "Discount:        %d%% (-%d)\n", q.DiscountPercent, q.DiscountAmount)
			fmt.Fprintf(out, "Net fee:         %d (%s)\n", q.NetFee, amountwords.NumberToWords(q.NetFee))
			fmt.Fprintf(out, "Duration:        %d years\n", q.DurationYears)
			fmt.Fprintf(out, "Programme total: %d (%s)\n", q.ProgrammeTotal, amountwords.NumberToWords(q.ProgrammeTotal))
			return nil
		},
	}

	cmd.Flags().StringVar(&level, "level", "", "degree level (BACHELOR or MASTER)")
	cmd.Flags().StringVar(&field, "field", "", "catalog field tag, e.g. \"Computing & Technology\"")
	cmd.Flags().StringVar(&duration, "duration", "", "catalog duration text, e.g. \"3 years\"")
	_ = cmd.MarkFlagRequired("level")
	_ = cmd.MarkFlagRequired("field")
	return cmd
}

func wordsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "words <amount>",
		Short: "Spell a whole amount in English words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(strings.ReplaceAll(args[0], ",", ""), 10, 64)
			if err != nil {
				return fmt.Errorf("amount must be a whole number: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), amountwords.NumberToWords(amount))
			return nil
		},
	}
}
