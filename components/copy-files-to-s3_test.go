package components

import (
	"io/ioutil"
	"os"
	"path"
	"testing"
	"time"

	"github.com/imfpipe/imfpipe/aws/s3"
	c "github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/logger"
	"github.com/imfpipe/imfpipe/stream"
)

// TestCopyFilesToS3Shutdown confirms CopyFilesToS3 handles shutdown requests.
// It runs offline since the component only touches S3 once input records arrive.
func TestCopyFilesToS3Shutdown(t *testing.T) {
	log := logger.NewLogger("imfpipe", "info", true)
	cfg := CopyFilesToS3Config{
		Log:               log,
		Name:              "Test CopyFilesToS3",
		InputChan:         make(chan stream.Record, c.ChanSize), // never closed so only shutdown ends the component.
		FileNameChanField: "fileName",
		BucketName:        "imfpipe-test-bucket",
		BucketPrefix:      "",
		Region:            "eu-west-2",
		RemoveInputFiles:  false,
		StepWatcher:       nil}
	_, controlChan := NewCopyFilesToS3(&cfg)
	responseChan := make(chan error, 1)
	controlChan <- ControlAction{Action: Shutdown, ResponseChan: responseChan}
	select {
	case <-responseChan:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for CopyFilesToS3 to shutdown.")
	}
}

// TestCopyFilesToS3 uploads a real file to a real bucket.
// Set IMFP_TEST_S3_BUCKET and IMFP_TEST_S3_REGION to enable it.
func TestCopyFilesToS3(t *testing.T) {
	bucket := os.Getenv("IMFP_TEST_S3_BUCKET")
	region := os.Getenv("IMFP_TEST_S3_REGION")
	if bucket == "" || region == "" {
		t.Skip("set IMFP_TEST_S3_BUCKET and IMFP_TEST_S3_REGION to run S3 integration tests")
	}
	log := logger.NewLogger("imfpipe", "info", true)
	prefix := ""
	bucketClient := s3.NewBasicClient(bucket, region, prefix) // used to verify and clean up uploads.

	localFile := path.Join(t.TempDir(), "imf-indicators-test.csv")
	csvBody := []byte("INDICATOR,COUNTRY_CODE,YEAR,VALUE\nNGDP_RPCH,USA,2024,2.8\n")
	if err := ioutil.WriteFile(localFile, csvBody, 0644); err != nil {
		t.Fatal("error creating ", localFile, ": ", err)
	}
	_, objectName := path.Split(localFile)

	fieldName := "fileName"
	rec := stream.NewRecord()
	rec.SetData(fieldName, localFile)
	inputChan := make(chan stream.Record, c.ChanSize)
	inputChan <- rec
	close(inputChan)

	log.Info("Test 1 - copy file without local delete...")
	cfg := CopyFilesToS3Config{
		Log:               log,
		Name:              "Test CopyFilesToS3",
		InputChan:         inputChan,
		FileNameChanField: fieldName,
		BucketName:        bucket,
		BucketPrefix:      prefix,
		Region:            region,
		RemoveInputFiles:  false,
		StepWatcher:       nil}
	outputChan, _ := NewCopyFilesToS3(&cfg)
	for out := range outputChan {
		log.Info("Test 1: file ", out, " should now be on S3.")
		if _, err := bucketClient.Get(objectName); err != nil {
			t.Fatal("unable to fetch file from S3 after it should have been uploaded.", err)
		}
		if err := bucketClient.Delete(objectName); err != nil {
			log.Panic("error deleting S3 file ", objectName)
		}
	}

	log.Info("Test 2: copy file with local delete done for us...")
	inputChan2 := make(chan stream.Record, c.ChanSize)
	inputChan2 <- rec
	close(inputChan2)
	cfg.RemoveInputFiles = true
	cfg.InputChan = inputChan2
	outputChan2, _ := NewCopyFilesToS3(&cfg)
	for out := range outputChan2 {
		log.Info("Test 2: file ", out, " should now be on S3.")
		if _, err := bucketClient.Get(objectName); err != nil {
			t.Fatal("unable to fetch file from S3 after it should have been uploaded.", err)
		}
		// The source file must be gone from the local filesystem.
		if _, err := os.Stat(localFile); err == nil {
			t.Fatal("file stat didn't return an error - we expect the file to have been removed by CopyFilesToS3().")
		}
		if err := bucketClient.Delete(objectName); err != nil {
			t.Fatalf("error removing S3 file, %v", objectName)
		}
		log.Debug("Test 2: file deleted OK")
	}
}
