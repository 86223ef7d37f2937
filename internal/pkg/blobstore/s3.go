package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/campus-site/core/internal/models"
	"github.com/campus-site/core/internal/pkg/apperr"
)

// S3Options configures the S3 driver.
type S3Options struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
	PathStyle       bool
}

// S3API is the subset of *s3.Client used by the driver.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

const (
	s3MetaFilename     = "filename"
	s3MetaOriginalName = "original-name"
	s3MetaMimeType     = "mime-type"
	s3MetaSize         = "size"
	s3MetaCategory     = "category"
	s3MetaDescription  = "description"
	s3MetaUploadedBy   = "uploaded-by"
)

// S3 stores blob bytes as objects and blob metadata as S3 user metadata.
type S3 struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Client builds an S3 client from static credentials.
func NewS3Client(opts S3Options) (*s3.Client, error) {
	bucket := strings.TrimSpace(opts.Bucket)
	region := strings.TrimSpace(opts.Region)
	if bucket == "" || region == "" {
		return nil, fmt.Errorf("incomplete s3 config: bucket and region are required")
	}

	s3Opts := s3.Options{
		Region:       region,
		UsePathStyle: opts.PathStyle,
	}
	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		s3Opts.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		)
	}
	if endpoint := strings.TrimSpace(opts.Endpoint); endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		s3Opts.BaseEndpoint = aws.String(strings.TrimSuffix(endpoint, "/"))
		// S3-compatible services generally need path-style addressing.
		s3Opts.UsePathStyle = true
	}
	return s3.New(s3Opts), nil
}

// NewS3 returns an S3-backed store.
func NewS3(client S3API, bucket, prefix string) *S3 {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "blobs"
	}
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) key(id models.BlobID) string { return s.prefix + "/" + id.String() }

func (s *S3) Put(ctx context.Context, r io.Reader, filename string, meta models.BlobMeta) (models.BlobID, error) {
	if err := checkMeta(meta); err != nil {
		return models.BlobID{}, err
	}
	// PutObject needs a seekable body to sign the payload.
	payload, err := io.ReadAll(r)
	if err != nil {
		return models.BlobID{}, apperr.Storage("blob.put", filename, err)
	}

	id := models.NewBlobID()
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(id)),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String(meta.MimeType),
		Metadata:      encodeS3Meta(filename, meta),
	})
	if err != nil {
		return models.BlobID{}, apperr.Storage("blob.put", filename, err)
	}
	return id, nil
}

func (s *S3) Get(ctx context.Context, id models.BlobID) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, apperr.NotFound("blob.get", id.String())
		}
		return nil, apperr.Storage("blob.get", id.String(), err)
	}
	return out.Body, nil
}

func (s *S3) Stat(ctx context.Context, id models.BlobID) (*models.BlobInfo, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, nil
		}
		return nil, apperr.Storage("blob.stat", id.String(), err)
	}
	info := decodeS3Info(id, out)
	return &info, nil
}

func (s *S3) Delete(ctx context.Context, id models.BlobID) error {
	// DeleteObject succeeds for missing keys, so probe first.
	info, err := s.Stat(ctx, id)
	if err != nil {
		return err
	}
	if info == nil {
		return apperr.NotFound("blob.delete", id.String())
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		return apperr.Storage("blob.delete", id.String(), err)
	}
	return nil
}

// List walks every object under the prefix and heads each one; cost grows
// with the bucket size.
func (s *S3) List(ctx context.Context, filter models.BlobFilter) ([]models.BlobInfo, error) {
	items := make([]models.BlobInfo, 0)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix + "/"),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperr.Storage("blob.list", "", err)
		}
		for _, obj := range page.Contents {
			raw := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix+"/")
			id, err := models.ParseBlobID(raw)
			if err != nil {
				continue
			}
			info, err := s.Stat(ctx, id)
			if err != nil {
				return nil, err
			}
			if info == nil || !filter.Matches(info.Meta) {
				continue
			}
			items = append(items, *info)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].UploadDate.After(items[j].UploadDate)
	})
	return items, nil
}

func encodeS3Meta(filename string, meta models.BlobMeta) map[string]string {
	out := map[string]string{
		s3MetaFilename:     url.QueryEscape(filename),
		s3MetaOriginalName: url.QueryEscape(meta.OriginalName),
		s3MetaMimeType:     meta.MimeType,
		s3MetaSize:         strconv.FormatInt(meta.Size, 10),
	}
	if meta.Category != "" {
		out[s3MetaCategory] = url.QueryEscape(meta.Category)
	}
	if meta.Description != "" {
		out[s3MetaDescription] = url.QueryEscape(meta.Description)
	}
	if meta.UploadedBy != "" {
		out[s3MetaUploadedBy] = url.QueryEscape(meta.UploadedBy)
	}
	return out
}

func decodeS3Info(id models.BlobID, out *s3.HeadObjectOutput) models.BlobInfo {
	md := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		md[strings.ToLower(k)] = v
	}
	unescape := func(k string) string {
		v, err := url.QueryUnescape(md[k])
		if err != nil {
			return md[k]
		}
		return v
	}
	size, _ := strconv.ParseInt(md[s3MetaSize], 10, 64)
	mimeType := md[s3MetaMimeType]
	if mimeType == "" {
		mimeType = aws.ToString(out.ContentType)
	}
	var uploaded time.Time
	if out.LastModified != nil {
		uploaded = *out.LastModified
	}
	return models.BlobInfo{
		ID:         id,
		Filename:   unescape(s3MetaFilename),
		Length:     aws.ToInt64(out.ContentLength),
		UploadDate: uploaded,
		Meta: models.BlobMeta{
			OriginalName: unescape(s3MetaOriginalName),
			MimeType:     mimeType,
			Size:         size,
			Category:     unescape(s3MetaCategory),
			Description:  unescape(s3MetaDescription),
			UploadedBy:   unescape(s3MetaUploadedBy),
		},
	}
}

func isS3NotFound(err error) bool {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
