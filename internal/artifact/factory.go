package artifact

import (
	"context"
	"fmt"
	"os"

	"gutcom/internal/infra/blob/fs"
	"gutcom/internal/infra/blob/memory"
	"gutcom/internal/infra/blob/s3"
)

// Open selects a Store implementation using environment variables.
//
//	GUTCOM_ARTIFACT_DRIVER: fs|s3|memory (default fs)
//	GUTCOM_ARTIFACT_FS_ROOT: directory root when driver=fs (default ./artifacts)
//	(S3 specific variables documented in the s3 package)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("GUTCOM_ARTIFACT_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return fs.New(os.Getenv("GUTCOM_ARTIFACT_FS_ROOT"))
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverMemory:
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown artifact driver %s", driver)
	}
}
