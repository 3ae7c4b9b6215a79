package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// ReportArchiver implements domain.ReportArchiver by serialising each run
// report to JSON and uploading it under a date-partitioned key.
//
// Key schema:
//
//	runs/{YYYY-MM-DD}/{account}/{run_id}.json
type ReportArchiver struct {
	uploader *manager.Uploader
	bucket   string
}

// NewReportArchiver creates a ReportArchiver over the given client.
func NewReportArchiver(c *Client) *ReportArchiver {
	return &ReportArchiver{
		uploader: manager.NewUploader(c.s3),
		bucket:   c.bucket,
	}
}

// Archive uploads one run report.
func (a *ReportArchiver) Archive(ctx context.Context, report domain.RunReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal report %s: %w", report.RunID, err)
	}

	key := fmt.Sprintf("runs/%s/%s/%s.json",
		report.StartedAt.UTC().Format("2006-01-02"), report.Account, report.RunID)

	_, err = a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3blob: upload report %s: %w", key, err)
	}
	return nil
}
