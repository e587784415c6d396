package publish

import (
	"context"
	"fmt"
	"os/exec"

	log "github.com/sirupsen/logrus"
)

// Publisher pushes a finished snapshot directory to the dataset host. The
// pipeline only cares that the upload succeeds or fails as a whole.
type Publisher interface {
	Publish(ctx context.Context, dir string) error
}

type kagglePublisher struct {
	dataset string
	message string
}

// NewKagglePublisher publishes via the kaggle CLI, which handles auth and the
// actual multi-file upload. dataset is the "owner/slug" identifier.
func NewKagglePublisher(dataset, message string) Publisher {
	return &kagglePublisher{
		dataset: dataset,
		message: message,
	}
}

func (p *kagglePublisher) Publish(ctx context.Context, dir string) error {
	log.Infof("🔄 Publishing %s to dataset %s", dir, p.dataset)

	cmd := exec.CommandContext(ctx, "kaggle", "datasets", "version",
		"-p", dir,
		"-m", p.message,
		"--dir-mode", "zip",
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("kaggle upload of %s failed: %w: %s", p.dataset, err, out)
	}

	log.Infof("✅ Published dataset %s", p.dataset)
	return nil
}
