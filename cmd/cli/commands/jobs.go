package commands

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/reelforge/reelforge/internal/api/v1/services"
)

func init() {
	jobsCmd.AddCommand(listJobsCmd)
	jobsCmd.AddCommand(getJobCmd)
	jobsCmd.AddCommand(lastJobCmd)
	jobsCmd.AddCommand(retryJobCmd)
	jobsCmd.AddCommand(salvageJobCmd)

	listJobsCmd.Flags().StringP("limit", "l", "", "Limit the number of jobs returned")
	listJobsCmd.Flags().StringP("offset", "o", "", "Offset into the job list")

	salvageJobCmd.Flags().String("voiceover-url", "", "Recovered voiceover URL")
	salvageJobCmd.Flags().String("music-url", "", "Recovered music URL")
	salvageJobCmd.Flags().String("video-url", "", "Recovered final video URL")
	salvageJobCmd.Flags().StringToString("visual", nil, "Recovered segment visual as index=url (repeatable)")
}

// GetJobsCmd returns the jobs command group
func GetJobsCmd() *cobra.Command {
	return jobsCmd
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage video generation jobs",
}

var listJobsCmd = &cobra.Command{
	Use:   "list",
	Short: "List jobs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		limit, _ := cmd.Flags().GetString("limit")
		offset, _ := cmd.Flags().GetString("offset")

		path := "/api/v1/jobs/"
		sep := "?"
		if limit != "" {
			path += sep + "limit=" + limit
			sep = "&"
		}
		if offset != "" {
			path += sep + "offset=" + offset
		}
		return call(http.MethodGet, path, nil)
	},
}

var getJobCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch a job by ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return call(http.MethodGet, "/api/v1/jobs/"+args[0], nil)
	},
}

var lastJobCmd = &cobra.Command{
	Use:   "last <requester-id>",
	Short: "Fetch the most recent job of a requester",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return call(http.MethodGet, "/api/v1/requesters/"+args[0]+"/last", nil)
	},
}

var retryJobCmd = &cobra.Command{
	Use:   "retry <id>",
	Short: "Create a fresh job from an existing job's inputs",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return call(http.MethodPost, "/api/v1/jobs/"+args[0]+"/retry", nil)
	},
}

var salvageJobCmd = &cobra.Command{
	Use:   "salvage <id>",
	Short: "Attach recovered media to a job and re-run its remaining steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		voiceoverURL, _ := cmd.Flags().GetString("voiceover-url")
		musicURL, _ := cmd.Flags().GetString("music-url")
		videoURL, _ := cmd.Flags().GetString("video-url")
		visuals, _ := cmd.Flags().GetStringToString("visual")

		req := services.SalvageRequest{
			VoiceoverURL: voiceoverURL,
			MusicURL:     musicURL,
			VideoURL:     videoURL,
		}
		if len(visuals) > 0 {
			req.SegmentVisualURLs = make(map[int]string, len(visuals))
			for rawIndex, url := range visuals {
				index, err := strconv.Atoi(rawIndex)
				if err != nil {
					return fmt.Errorf("invalid segment index %q: %w", rawIndex, err)
				}
				req.SegmentVisualURLs[index] = url
			}
		}
		return call(http.MethodPost, "/api/v1/jobs/"+args[0]+"/salvage", req)
	},
}
