// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage provides an S3-compatible object storage client. Element
// images live in the public bucket and are served directly; generated
// certificate documents live in the private bucket and are handed out via
// presigned URLs. It wraps the AWS SDK v2 and is configured for path-style
// access (required by CEPH/Hetzner).
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// DefaultDownloadExpiry is how long presigned download links for
// generated documents stay valid.
const DefaultDownloadExpiry = 1 * time.Hour

// Client performs object operations against the two application buckets.
type Client struct {
	s3            *s3.Client
	presigner     *s3.PresignClient
	publicBucket  string
	privateBucket string
	endpoint      string
	publicURL     string // optional CDN/direct URL for public files
}

// New creates an S3 storage client with path-style addressing. Returns
// (nil, nil) when endpoint or credentials are missing so the app can
// start without object storage configured.
func New(endpoint, region, accessKey, secretKey, publicBucket, privateBucket, publicURL string) (*Client, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" {
		return nil, nil
	}
	endpoint = strings.TrimRight(endpoint, "/")

	api := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Client{
		s3:            api,
		presigner:     s3.NewPresignClient(api),
		publicBucket:  publicBucket,
		privateBucket: privateBucket,
		endpoint:      endpoint,
		publicURL:     strings.TrimRight(publicURL, "/"),
	}, nil
}

// put writes one object. Objects in the public bucket get a public-read
// ACL so the browser can load them directly.
func (c *Client) put(ctx context.Context, bucket, key, contentType string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}
	if bucket == c.publicBucket {
		input.ACL = s3types.ObjectCannedACLPublicRead
	}
	if _, err := c.s3.PutObject(ctx, input); err != nil {
		return fmt.Errorf("s3 put %s/%s: %w", bucket, key, err)
	}
	return nil
}

// UploadElementImage stores an element image in the public bucket and
// returns the URL to embed in the element's content.
func (c *Client) UploadElementImage(ctx context.Context, key, contentType string, data []byte) (string, error) {
	if err := c.put(ctx, c.publicBucket, key, contentType, data); err != nil {
		return "", err
	}
	return c.FileURL(key), nil
}

// DeleteElementImage removes an element image from the public bucket.
func (c *Client) DeleteElementImage(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.publicBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", c.publicBucket, key, err)
	}
	return nil
}

// UploadGenerated stores a generated certificate document in the private
// bucket. Access goes through DownloadURL.
func (c *Client) UploadGenerated(ctx context.Context, key, contentType string, data []byte) error {
	return c.put(ctx, c.privateBucket, key, contentType, data)
}

// DownloadURL presigns a GET for a generated document. A zero expiry
// falls back to DefaultDownloadExpiry.
func (c *Client) DownloadURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	if expires == 0 {
		expires = DefaultDownloadExpiry
	}
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.privateBucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("s3 presign %s/%s: %w", c.privateBucket, key, err)
	}
	return req.URL, nil
}

// ListGenerated returns the keys of all generated documents under the
// given prefix in the private bucket, in lexicographic order.
func (c *Client) ListGenerated(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	paginator := s3.NewListObjectsV2Paginator(c.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.privateBucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %s/%s: %w", c.privateBucket, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	return keys, nil
}

// FileURL returns the browser-facing URL for a public-bucket key: the
// configured CDN/custom domain when set, a path-style URL otherwise.
func (c *Client) FileURL(key string) string {
	if c.publicURL != "" {
		return c.publicURL + "/" + key
	}
	return c.endpoint + "/" + c.publicBucket + "/" + key
}

// ExtractKey maps a public file URL back to its object key. Reports
// false when the URL was not issued by this storage, so callers can
// ignore foreign URLs instead of deleting the wrong object.
func (c *Client) ExtractKey(rawURL string) (string, bool) {
	if c.publicURL != "" {
		if key, ok := strings.CutPrefix(rawURL, c.publicURL+"/"); ok {
			return key, true
		}
	}
	return strings.CutPrefix(rawURL, c.endpoint+"/"+c.publicBucket+"/")
}
