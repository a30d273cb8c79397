package source

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ilkoid/notesorter/pkg/s3storage"
	"github.com/ilkoid/notesorter/pkg/utils"
)

// S3 — объекты под одним префиксом бакета.
// Имя файла = ключ без префикса.
type S3 struct {
	client s3storage.ClientInterface
	bucket string
	prefix string
}

var _ Source = (*S3)(nil)

// NewS3 создаёт источник. prefix нормализуется до "dir/" (или пустой строки).
func NewS3(client s3storage.ClientInterface, bucket, prefix string) *S3 {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) String() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.prefix)
}

// List возвращает объекты непосредственно под префиксом.
func (s *S3) List(ctx context.Context) ([]File, error) {
	objects, err := s.client.ListFiles(ctx, s.prefix)
	if err != nil {
		return nil, err
	}

	files := make([]File, 0, len(objects))
	for _, obj := range objects {
		name := strings.TrimPrefix(obj.Key, s.prefix)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		if strings.Contains(name, "/") {
			utils.Debug("Skipping nested object", "key", obj.Key)
			continue
		}
		files = append(files, File{Name: name, Size: obj.Size})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// Read скачивает объект prefix+name.
func (s *S3) Read(ctx context.Context, name string) ([]byte, error) {
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return s.client.DownloadFile(ctx, s.prefix+name)
}
