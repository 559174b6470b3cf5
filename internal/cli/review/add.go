package review

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"noodlemap/internal/cli/client"
	"noodlemap/internal/client/api"
	"noodlemap/pkg/models"
)

var addCmd = &cobra.Command{
	Use:   "add <shop-id> <content>",
	Short: "Write a review or reply",
	Long:  "Post a top-level review (--rating required) or a reply (--reply-to). Photos attach with --photo.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		shopID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid shop id %q", args[0])
		}
		content := args[1]

		rating, _ := cmd.Flags().GetInt("rating")
		replyTo, _ := cmd.Flags().GetInt64("reply-to")
		photoPaths, _ := cmd.Flags().GetStringSlice("photo")

		req := models.CreateReviewRequest{
			ShopID:  shopID,
			Content: content,
		}
		if replyTo != 0 {
			parent := models.ReviewID(replyTo)
			req.ParentReviewID = &parent
		} else {
			if rating == 0 {
				return fmt.Errorf("top-level reviews need --rating 1..5")
			}
			req.Rating = &rating
		}
		if err := req.Validate(); err != nil {
			return err
		}

		var photos []api.PhotoUpload
		var closers []*os.File
		defer func() {
			for _, f := range closers {
				f.Close()
			}
		}()
		for _, p := range photoPaths {
			f, err := os.Open(p)
			if err != nil {
				return fmt.Errorf("failed to open photo %s: %w", p, err)
			}
			closers = append(closers, f)
			contentType := mime.TypeByExtension(filepath.Ext(p))
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			photos = append(photos, api.PhotoUpload{
				Filename:    filepath.Base(p),
				ContentType: contentType,
				Reader:      f,
			})
		}

		apiClient, sess := client.New()
		if !sess.IsAuthenticated() {
			return fmt.Errorf("not logged in; run 'noodlemap auth login'")
		}

		created, err := apiClient.CreateReviewWithPhotos(context.Background(), req, photos)
		if err != nil {
			return fmt.Errorf("failed to post: %w", err)
		}

		if created.IsReply() {
			fmt.Printf("✓ Reply #%d posted.\n", created.ID)
		} else {
			fmt.Printf("✓ Review #%d posted.\n", created.ID)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().Int("rating", 0, "Star rating 1..5 (top-level reviews only)")
	addCmd.Flags().Int64("reply-to", 0, "Reply to this review id instead of posting a top-level review")
	addCmd.Flags().StringSlice("photo", nil, "Attach a photo file (repeatable)")
	ReviewCmd.AddCommand(addCmd)
}
