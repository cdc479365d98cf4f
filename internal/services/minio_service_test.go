package services

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinioService_PresignedURL(t *testing.T) {
	svc, err := NewMinioService(MinioConfig{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "product-images",
		Region:    "us-east-1",
	})
	require.NoError(t, err)

	raw, err := svc.GetPresignedURL(context.Background(), "products/7/pear.jpg", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "/product-images/products/7/pear.jpg", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestMinioService_SSLEndpoint(t *testing.T) {
	svc, err := NewMinioService(MinioConfig{
		Endpoint:  "s3.example.com",
		AccessKey: "key",
		SecretKey: "secret",
		Bucket:    "images",
		Region:    "eu-west-1",
		UseSSL:    true,
	})
	require.NoError(t, err)

	raw, err := svc.GetPresignedURL(context.Background(), "a.png", time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, "https://"))
}

func TestMinioService_InvalidEndpoint(t *testing.T) {
	_, err := NewMinioService(MinioConfig{Endpoint: "http://not-a-host-port/"})
	assert.Error(t, err)
}
