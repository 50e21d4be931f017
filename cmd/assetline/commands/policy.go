package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/DrSkyle/assetline/internal/app"
	"github.com/DrSkyle/assetline/pkg/engine/policy"
	"github.com/spf13/cobra"
)

var PolicyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Audit the journal against policy rules",
	Long: `Policy evaluates every journaled event against the configured rules
(or the built-in defaults) and lists the matches. Any block-level match
fails the command, which makes it usable as a CI gate.`,
	Run: func(cmd *cobra.Command, args []string) {
		violations, checked, err := app.Check(cmd.Context(), baseConfig(cmd))
		if err != nil {
			fmt.Printf("❌  Error: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("📊 Checked %d events\n", checked)
		if len(violations) == 0 {
			fmt.Println("✅ No policy violations.")
			return
		}

		blocked := 0
		for _, v := range violations {
			icon := "⚠️ "
			if v.Rule.Action == policy.ActionBlock {
				icon = "❌"
				blocked++
			}
			fmt.Printf("%s [%s] %s: %s (event %s)\n", icon, strings.ToUpper(v.Rule.Action), v.Rule.ID, v.Key, v.EventID)
		}

		fmt.Printf("\n%d violations, %d blocking\n", len(violations), blocked)
		if blocked > 0 {
			os.Exit(1)
		}
	},
}
