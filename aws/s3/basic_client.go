package s3

import (
	"bytes"
	"io"
	"io/ioutil"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// NewBasicClient returns a client scoped to one bucket and key prefix.
// Credentials come from the default AWS chain (env, profile, instance role).
func NewBasicClient(bucket, region, prefix string) BasicClient {
	cfg := aws.NewConfig().WithRegion(region)
	sess := session.Must(session.NewSession(cfg))
	return &basicClient{
		bucket: bucket,
		region: region,
		prefix: prefix,
		api:    s3.New(sess),
	}
}

type basicClient struct {
	region string
	bucket string
	prefix string
	api    s3iface.S3API // interface so tests can stub the API.
}

// List returns all keys under the client prefix plus key, following
// pagination markers until the listing is complete.
func (s *basicClient) List(key string) ([]string, error) {
	keys := make([]string, 0, 1000)
	lastKey := ""
	for {
		resp, err := s.api.ListObjects(&s3.ListObjectsInput{
			Bucket:  aws.String(s.bucket),
			Marker:  aws.String(lastKey),
			MaxKeys: aws.Int64(1000),
			Prefix:  aws.String(s.getKeyWithPrefix(key)),
		})
		if err != nil {
			return nil, err
		}
		for _, v := range resp.Contents {
			keys = append(keys, *v.Key)
		}
		if len(keys) > 0 {
			lastKey = keys[len(keys)-1]
		}
		if !*resp.IsTruncated {
			return keys, nil
		}
	}
}

// Get fetches one object, mapping a missing key onto ErrKeyNotFound.
func (s *basicClient) Get(key string) ([]byte, error) {
	res, err := s.api.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
	})
	if err != nil {
		if awsErr, ok := err.(awserr.Error); ok && awsErr.Code() == s3.ErrCodeNoSuchKey {
			return nil, ErrKeyNotFound
		}
		return nil, err
	}
	defer res.Body.Close()
	return ioutil.ReadAll(res.Body)
}

func (s *basicClient) Put(key string, data []byte) error {
	return s.BufferPut(key, bytes.NewReader(data))
}

// BufferPut streams from a ReadSeeker, which lets callers hand over an open
// file without buffering it in memory.
func (s *basicClient) BufferPut(key string, dataBuf io.ReadSeeker) error {
	_, err := s.api.PutObject(&s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
		Body:   dataBuf,
	})
	return err
}

func (s *basicClient) Delete(key string) error {
	_, err := s.api.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.getKeyWithPrefix(key)),
	})
	return err
}

func (s *basicClient) getKeyWithPrefix(key string) string {
	if s.prefix == "" {
		return key
	}
	return strings.TrimRight(s.prefix, "/") + "/" + key
}
