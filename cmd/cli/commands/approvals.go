package commands

import (
	"net/http"

	"github.com/spf13/cobra"

	"github.com/reelforge/reelforge/internal/api/v1/handlers"
)

func init() {
	approvalsCmd.AddCommand(approveCmd)
	approvalsCmd.AddCommand(rejectCmd)

	rejectCmd.Flags().StringP("feedback", "f", "", "Reviewer notes passed back to the pipeline")
}

// GetApprovalsCmd returns the approvals command group
func GetApprovalsCmd() *cobra.Command {
	return approvalsCmd
}

var approvalsCmd = &cobra.Command{
	Use:   "approvals",
	Short: "Resolve pending review checkpoints",
}

var approveCmd = &cobra.Command{
	Use:   "approve <job-id> <checkpoint>",
	Short: "Approve a pending checkpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		return call(http.MethodPost, "/api/v1/approvals/"+args[0]+"/"+args[1],
			handlers.DecisionRequest{Approved: true})
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <job-id> <checkpoint>",
	Short: "Reject a pending checkpoint",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		feedback, _ := cmd.Flags().GetString("feedback")
		return call(http.MethodPost, "/api/v1/approvals/"+args[0]+"/"+args[1],
			handlers.DecisionRequest{Approved: false, Feedback: feedback})
	},
}
