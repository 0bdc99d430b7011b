package store

import (
	"bufio"
	"bytes"
	"fmt"
	"io/ioutil"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

var (
	s3lock   sync.Mutex
	s3logger hasPrintf
	s3region string // used when the path names no region
)

// region => client
var s3clients = map[string]s3iface.S3API{}

var s3newClient = newS3Client

func newS3Client(region string) (s3iface.S3API, error) {
	sess, err := session.NewSession(aws.NewConfig().WithRegion(region))
	if err != nil {
		return nil, err
	}
	return s3.New(sess), nil
}

func s3init(logger hasPrintf, region string) {
	s3lock.Lock()
	s3logger = logger
	s3region = region
	s3lock.Unlock()
	s3log("initialized: default region=[%s]", region)
}

func s3log(format string, v ...interface{}) {
	s3lock.Lock()
	logger := s3logger
	s3lock.Unlock()
	if logger == nil {
		return
	}
	logger.Printf("s3 store: "+format, v...)
}

func s3client(region string) (s3iface.S3API, error) {
	s3lock.Lock()
	defer s3lock.Unlock()

	if region == "" {
		region = s3region
	}

	if c, found := s3clients[region]; found {
		return c, nil
	}

	c, err := s3newClient(region)
	if err != nil {
		return nil, fmt.Errorf("s3client: region=[%s]: %v", region, err)
	}

	s3clients[region] = c

	return c, nil
}

// S3Path reports whether path names an S3 object.
func S3Path(path string) bool {
	return s3path(path)
}

func s3path(path string) bool {
	return strings.HasPrefix(path, "arn:aws:s3:")
}

// s3parse splits "arn:aws:s3:region::bucket/folder/file" into region,
// bucket and key.
func s3parse(path string) (string, string, string) {
	s := strings.SplitN(path, ":", 6)
	if len(s) < 6 {
		return "", "", ""
	}
	region := s[3]
	file := s[5]
	slash := strings.IndexByte(file, '/')
	if slash < 1 {
		return "", "", ""
	}
	return region, file[:slash], file[slash+1:]
}

func s3object(path string) (s3iface.S3API, string, string, error) {
	region, bucket, key := s3parse(path)
	if bucket == "" {
		return nil, "", "", fmt.Errorf("bad s3 path: [%s]", path)
	}
	c, err := s3client(region)
	if err != nil {
		return nil, "", "", err
	}
	return c, bucket, key, nil
}

func s3fileExists(path string) bool {
	c, bucket, key, err := s3object(path)
	if err != nil {
		s3log("s3fileExists: %v", err)
		return false
	}

	_, headErr := c.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})

	return headErr == nil
}

func s3fileput(path string, buf []byte, contentType string) error {
	c, bucket, key, err := s3object(path)
	if err != nil {
		return fmt.Errorf("s3fileput: %v", err)
	}

	_, putErr := c.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf),
		ContentType: aws.String(contentType),
	})
	if putErr != nil {
		return fmt.Errorf("s3fileput: [%s]: %v", path, putErr)
	}

	s3log("s3fileput: [%s] %d bytes", path, len(buf))

	return nil
}

func s3fileRead(path string) ([]byte, error) {
	c, bucket, key, err := s3object(path)
	if err != nil {
		return nil, fmt.Errorf("s3fileRead: %v", err)
	}

	out, getErr := c.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if getErr != nil {
		return nil, fmt.Errorf("s3fileRead: [%s]: %v", path, getErr)
	}
	defer out.Body.Close()

	return ioutil.ReadAll(out.Body)
}

func s3fileFirstLine(path string) (string, error) {
	buf, err := s3fileRead(path)
	if err != nil {
		return "", err
	}
	r := bufio.NewReader(bytes.NewReader(buf))
	line, _, readErr := r.ReadLine()
	return string(line), readErr
}

func s3fileRemove(path string) error {
	c, bucket, key, err := s3object(path)
	if err != nil {
		return fmt.Errorf("s3fileRemove: %v", err)
	}

	_, delErr := c.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if delErr != nil {
		return fmt.Errorf("s3fileRemove: [%s]: %v", path, delErr)
	}

	return nil
}

// s3fileRename copies then deletes; S3 has no rename.
func s3fileRename(p1, p2 string) error {
	c, bucket1, key1, err1 := s3object(p1)
	if err1 != nil {
		return fmt.Errorf("s3fileRename: %v", err1)
	}
	_, bucket2, key2, err2 := s3object(p2)
	if err2 != nil {
		return fmt.Errorf("s3fileRename: %v", err2)
	}

	_, copyErr := c.CopyObject(&s3.CopyObjectInput{
		Bucket:     aws.String(bucket2),
		Key:        aws.String(key2),
		CopySource: aws.String(url.PathEscape(bucket1 + "/" + key1)),
	})
	if copyErr != nil {
		return fmt.Errorf("s3fileRename: copy [%s] to [%s]: %v", p1, p2, copyErr)
	}

	return s3fileRemove(p1)
}

// s3dirList lists the objects sharing the folder of path.
// The returned dirname is path up to the last slash.
func s3dirList(path string) (string, []string, error) {
	dirname := path
	if slash := strings.LastIndexByte(path, '/'); slash >= 0 {
		dirname = path[:slash]
	}

	c, bucket, key, err := s3object(path)
	if err != nil {
		return dirname, nil, fmt.Errorf("s3dirList: %v", err)
	}

	folder := ""
	if slash := strings.LastIndexByte(key, '/'); slash >= 0 {
		folder = key[:slash+1]
	}

	var names []string

	listErr := c.ListObjectsV2Pages(&s3.ListObjectsV2Input{
		Bucket:    aws.String(bucket),
		Prefix:    aws.String(folder),
		Delimiter: aws.String("/"),
	}, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			names = append(names, strings.TrimPrefix(aws.StringValue(obj.Key), folder))
		}
		return true
	})
	if listErr != nil {
		return dirname, nil, fmt.Errorf("s3dirList: [%s]: %v", path, listErr)
	}

	return dirname, names, nil
}

func s3fileInfo(path string) (time.Time, int64, error) {
	c, bucket, key, err := s3object(path)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("s3fileInfo: %v", err)
	}

	out, headErr := c.HeadObject(&s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if headErr != nil {
		return time.Time{}, 0, fmt.Errorf("s3fileInfo: [%s]: %v", path, headErr)
	}

	return aws.TimeValue(out.LastModified), aws.Int64Value(out.ContentLength), nil
}

func s3fileCompare(p1, p2 string) (bool, error) {
	b1, err1 := s3fileRead(p1)
	if err1 != nil {
		return false, err1
	}
	b2, err2 := s3fileRead(p2)
	if err2 != nil {
		return false, err2
	}
	return bytes.Equal(b1, b2), nil
}
