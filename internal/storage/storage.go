package storage

import (
	"context"
	"path"
	"strconv"
	"strings"
	"time"
)

// ObjectStorage captures the S3-compatible operations the report export needs.
type ObjectStorage interface {
	UploadObject(ctx context.Context, key string, data []byte, contentType string) error
}

// ReportKey places an export under prefix, partitioned by day and named by warehouse scope
func ReportKey(prefix string, generatedAt time.Time, warehouseID *int64, ext string) string {
	scope := "all"
	if warehouseID != nil {
		scope = "warehouse-" + strconv.FormatInt(*warehouseID, 10)
	}

	at := generatedAt.UTC()
	name := "suggestions_" + scope + "_" + at.Format("20060102T150405Z") + "." + strings.TrimPrefix(ext, ".")
	return path.Join(strings.Trim(prefix, "/"), at.Format("2006/01/02"), name)
}
