package s3

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/imfpipe/imfpipe/constants"
	"github.com/imfpipe/imfpipe/rdbms/shared"
)

// AwsS3Bucket describes an S3 connection the way it is stored in config:
// bucket name, optional key prefix and region.
type AwsS3Bucket struct {
	Name   string `errorTxt:"bucket name" mandatory:"yes"`
	Prefix string `errorTxt:"bucket prefix"`
	Region string `errorTxt:"bucket region" mandatory:"yes"`
	Dsn    string
}

// Parse validates the bucket fields by round-tripping them through ParseDSN.
func (d AwsS3Bucket) Parse() error {
	_, err := ParseDSN(fmt.Sprintf("%s/%s", d.Name, d.Prefix), d.Region)
	return err
}

func (d AwsS3Bucket) GetScheme() (string, error) {
	return constants.ConnectionTypeS3, nil
}

// GetMap writes the bucket fields into m, allocating one when m is nil.
func (d AwsS3Bucket) GetMap(m map[string]string) map[string]string {
	if m == nil {
		m = make(map[string]string)
	}
	m["name"] = d.Name
	m["prefix"] = d.Prefix
	m["region"] = d.Region
	return m
}

// NewAwsBucket builds a bucket struct from stored connection details.
func NewAwsBucket(c *shared.ConnectionDetails) *AwsS3Bucket {
	return &AwsS3Bucket{
		Name:   c.Data["name"],
		Prefix: c.Data["prefix"],
		Region: c.Data["region"],
	}
}

// ParseDSN splits [s3://]<bucket>/<prefix> plus a region into an AwsS3Bucket.
// The region is required; the prefix may be empty.
func ParseDSN(bucketPrefix string, region string) (retval AwsS3Bucket, err error) {
	s3url, err := url.Parse(bucketPrefix)
	if err != nil {
		return retval, fmt.Errorf("error parsing S3 URL: %v", err)
	}
	if s3url.Scheme != "" && s3url.Scheme != "s3" {
		return retval, fmt.Errorf("expected S3 URL scheme %q but got %q", "s3", s3url.Scheme)
	}
	if region == "" {
		return retval, fmt.Errorf("value expected for bucket region")
	}
	retval.Name = s3url.Host
	if retval.Name == "" {
		return retval, fmt.Errorf("DSN failed to parse bucket name")
	}
	retval.Prefix = strings.Trim(s3url.Path, "/")
	retval.Region = region
	return
}

// AwsBucketToMap flattens bucket b into map m for storage as connection data.
func AwsBucketToMap(m map[string]string, b AwsS3Bucket) map[string]string {
	m["name"] = b.Name
	m["prefix"] = b.Prefix
	m["region"] = b.Region
	return m
}
