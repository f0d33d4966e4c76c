package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"

	"github.com/Azure/azure-storage-blob-go/azblob"
)

// AzureBlobstore keeps blobs in an Azure Blob Storage container, one block
// blob per name under the owner's prefix. Block blob uploads are atomic.
type AzureBlobstore struct {
	containerName string
	prefix        string
	serviceURL    *azblob.ServiceURL
}

func NewAzureBlobstore(ctx context.Context, containerName, accountName, accountKey, prefix string) (*AzureBlobstore, error) {
	primaryURLRaw := fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	primaryURL, err := url.Parse(primaryURLRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %v: %v", primaryURLRaw, err)
	}

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, err
	}

	p := azblob.NewPipeline(credential, azblob.PipelineOptions{})
	serviceURL := azblob.NewServiceURL(*primaryURL, p)

	return &AzureBlobstore{
		serviceURL:    &serviceURL,
		containerName: containerName,
		prefix:        prefix,
	}, nil
}

func (s *AzureBlobstore) objectName(name string) string {
	return path.Join(s.prefix, name+".json")
}

func (s *AzureBlobstore) Put(ctx context.Context, name string, contents []byte) error {
	blobURL := s.serviceURL.NewContainerURL(s.containerName).NewBlockBlobURL(s.objectName(name))
	headers := azblob.BlobHTTPHeaders{ContentType: "application/json"}

	if _, err := azblob.UploadBufferToBlockBlob(ctx, contents, blobURL, azblob.UploadToBlockBlobOptions{
		BlobHTTPHeaders: headers,
	}); err != nil {
		return fmt.Errorf("storage.Put: %w", err)
	}
	return nil
}

func (s *AzureBlobstore) Get(ctx context.Context, name string) ([]byte, error) {
	blobURL := s.serviceURL.NewContainerURL(s.containerName).NewBlobURL(s.objectName(name))

	downloadResponse, err := blobURL.Download(ctx, 0, azblob.CountToEnd, azblob.BlobAccessConditions{}, false)
	if err != nil {
		if stgErr, ok := err.(azblob.StorageError); ok && stgErr.ServiceCode() == azblob.ServiceCodeBlobNotFound {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("storage.Get: %w", err)
	}

	// NOTE: the reader retries when the connection drops mid-body
	bodyStream := downloadResponse.Body(azblob.RetryReaderOptions{MaxRetryRequests: 5})
	defer bodyStream.Close()

	downloadedData := bytes.Buffer{}
	if _, err := downloadedData.ReadFrom(bodyStream); err != nil {
		return nil, fmt.Errorf("storage.Get: reading body: %w", err)
	}

	return downloadedData.Bytes(), nil
}
