package components_test

import (
	"os"
	"strings"
	"testing"

	"github.com/imfpipe/imfpipe/aws/s3"
	"github.com/imfpipe/imfpipe/components"
	"github.com/imfpipe/imfpipe/logger"
)

// TestS3BucketListInput lists a real bucket.
// Set IMFP_TEST_S3_BUCKET and IMFP_TEST_S3_REGION to enable it.
func TestS3BucketListInput(t *testing.T) {
	bucket := os.Getenv("IMFP_TEST_S3_BUCKET")
	region := os.Getenv("IMFP_TEST_S3_REGION")
	if bucket == "" || region == "" {
		t.Skip("set IMFP_TEST_S3_BUCKET and IMFP_TEST_S3_REGION to run S3 integration tests")
	}
	log := logger.NewLogger("imfpipe", "info", true)
	prefix := "imfpipe-test-prefix"
	fileName := "imf-indicators-test.csv"
	fieldFileName := "filename"
	fieldFileNameWithoutPrefix := "filenameWithoutPrefix"

	// Seed the bucket with the object this test expects to list.
	bucketClient := s3.NewBasicClient(bucket, region, prefix)
	if err := bucketClient.BufferPut(fileName, strings.NewReader("INDICATOR,COUNTRY_CODE,YEAR,VALUE\nLUR,GBR,2024,4.3\n")); err != nil {
		log.Panic(err)
	}
	defer func() {
		if err := bucketClient.Delete(fileName); err != nil {
			log.Panic(err)
		}
	}()

	log.Info("Test 1 - confirm we can list the bucket...")
	cfg := components.S3BucketListerConfig{
		Log:                               log,
		Name:                              "Test S3BucketLister",
		BucketName:                        bucket,
		BucketPrefix:                      prefix,
		Region:                            region,
		StepWatcher:                       nil,
		ObjectNamePrefix:                  fileName,
		OutputField4FileName:              fieldFileName,
		OutputField4FileNameWithoutPrefix: fieldFileNameWithoutPrefix,
	}
	outputChan, controlChan := components.NewS3BucketList(&cfg)
	for rec := range outputChan {
		log.Debug("Test 1 - found S3 file: '", rec.GetData(fieldFileName), "'")
		expectedFile := prefix + "/" + fileName
		if rec.GetData(fieldFileName) != expectedFile {
			t.Fatal("Incorrect file path found on S3. Found: '", rec.GetData(fieldFileName), "' expected '", expectedFile, "'")
		}
		if rec.GetData(fieldFileNameWithoutPrefix) != fileName {
			t.Fatal("Incorrect file name found on S3. Found: '", rec.GetData(fieldFileNameWithoutPrefix), "' expected '", fileName, "'")
		}
		// The bucket coordinates ride along on well-known fields.
		if rec.GetData(components.Defaults.ChanField4BucketName) != bucket {
			t.Fatal("Unexpected bucket name")
		}
		if rec.GetData(components.Defaults.ChanField4BucketPrefix) != prefix {
			t.Fatal("Unexpected bucket prefix")
		}
		if rec.GetData(components.Defaults.ChanField4BucketRegion) != region {
			t.Fatal("Unexpected region name")
		}
	}

	log.Info("Test 2 - confirm S3BucketList returns a control channel...")
	if controlChan == nil {
		t.Fatal("S3BucketList returned nil controlChan")
	}
}
