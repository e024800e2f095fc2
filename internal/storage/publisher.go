package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"reelsmith/internal/ports"
)

const shareExpiry = 24 * time.Hour

// ObjectPublisher copies finished renders to a Provider and hands back
// a URL for the caller's response.
type ObjectPublisher struct {
	sp Provider
}

func NewObjectPublisher(sp Provider) *ObjectPublisher {
	return &ObjectPublisher{sp: sp}
}

// Publish uploads the local file under the given name and returns its
// share URL. When the provider cannot produce a public URL the local
// /videos path is returned, which the service serves itself.
func (p *ObjectPublisher) Publish(ctx context.Context, localPath, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("opening render for publish: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stating render for publish: %w", err)
	}

	out, err := p.sp.PutObject(ctx, ports.PutObjectInput{
		ObjectKey:   "renders/" + name,
		ContentType: "video/mp4",
		Reader:      f,
		Size:        st.Size(),
	})
	if err != nil {
		return "", err
	}

	shared, err := p.sp.GetShareURL(ctx, out.ObjectKey, shareExpiry)
	if err != nil {
		return "", err
	}
	if shared.URL == "" {
		return "/videos/" + name, nil
	}
	return shared.URL, nil
}
