package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/Scholar-Chain/smart-contract/sdk/go/scholarchain"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	v := viper.New()
	v.SetEnvPrefix("SCHOLARCHAIN")
	v.AutomaticEnv()
	_ = v.BindEnv("BASE_URL")
	_ = v.BindEnv("TOKEN")

	rootCmd := &cobra.Command{
		Use:   "scholarctl",
		Short: "Operator tooling for the Scholar-Chain escrow service",
	}
	rootCmd.PersistentFlags().String("base-url", "http://localhost:8084", "escrow service base URL")
	rootCmd.PersistentFlags().String("token", "", "bearer token (defaults to SCHOLARCHAIN_TOKEN)")
	_ = v.BindPFlag("BASE_URL", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = v.BindPFlag("TOKEN", rootCmd.PersistentFlags().Lookup("token"))

	client := func() *scholarchain.Client {
		return scholarchain.New(v.GetString("BASE_URL"), v.GetString("TOKEN"))
	}

	rootCmd.AddCommand(getCmd(client))
	rootCmd.AddCommand(shareCmd(client))
	rootCmd.AddCommand(sweepCmd(client))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getCmd(client func() *scholarchain.Client) *cobra.Command {
	return &cobra.Command{
		Use:   "get [submission-id]",
		Short: "Print a submission record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sub, err := client().GetSubmission(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(sub)
		},
	}
}

func shareCmd(client func() *scholarchain.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Read or update the reviewer share percentage",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the current reviewer share percentage",
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := client().ReviewerShare(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(pct)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set [pct]",
		Short: "Update the reviewer share percentage (operator only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pct, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("pct must be an integer: %w", err)
			}
			return client().SetReviewerShare(cmd.Context(), pct)
		},
	})
	return cmd
}

// sweepCmd is the watchdog caller: the service only gates timeouts, it never
// fires them on its own. Run this from a scheduler.
func sweepCmd(client func() *scholarchain.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Time out every submission past the publisher deadline and grace period",
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			c := client()
			subs, err := c.OverdueSubmissions(cmd.Context())
			if err != nil {
				return err
			}
			if len(subs) == 0 {
				fmt.Println("nothing to sweep")
				return nil
			}
			var failed int
			for _, sub := range subs {
				if dryRun {
					fmt.Printf("would time out %s (status %s, last action %s)\n", sub.ID, sub.Status, sub.LastActionAt)
					continue
				}
				if _, err := c.Timeout(cmd.Context(), sub.ID); err != nil {
					// Another caller may have settled the record first; that is
					// a healthy race for a permissionless mechanism.
					var sdkErr *scholarchain.Error
					if errors.As(err, &sdkErr) && (sdkErr.ErrorCode == "ILLEGAL_STATE" || sdkErr.ErrorCode == "TOO_EARLY") {
						fmt.Printf("skipped %s: %s\n", sub.ID, sdkErr.ErrorCode)
						continue
					}
					failed++
					fmt.Fprintf(os.Stderr, "timeout %s: %v\n", sub.ID, err)
					continue
				}
				fmt.Printf("timed out %s\n", sub.ID)
			}
			if failed > 0 {
				return fmt.Errorf("%d timeout call(s) failed", failed)
			}
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "list overdue submissions without timing them out")
	return cmd
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
