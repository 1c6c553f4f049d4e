// Package gocvnet runs an ONNX image classifier through OpenCV's DNN module
// and exposes one of its layers as an embedding.
package gocvnet

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/domain"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/lostfound/similarity"
	"github.com/Abdurahmanit/GroupProject/lostfound-service/internal/platform/logger"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

const inputSize = 224

// Net wraps a loaded gocv.Net. Forward passes are serialised because a Net
// is not safe for concurrent use.
type Net struct {
	mu          sync.Mutex
	net         gocv.Net
	outputLayer string
}

var _ similarity.Model = (*Net)(nil)

// Loader returns a ModelLoader that reads the ONNX model at path.
func Loader(path, outputLayer string, log *logger.Logger) similarity.ModelLoader {
	l := log.Named("gocvnet")
	return func(_ context.Context) (similarity.Model, error) {
		if _, err := os.Stat(path); err != nil {
			l.Error("Model file not readable", zap.String("path", path), zap.Error(err))
			return nil, fmt.Errorf("read model %s: %w", path, err)
		}
		net := gocv.ReadNet(path, "")
		if net.Empty() {
			l.Error("Failed to read model", zap.String("path", path))
			return nil, fmt.Errorf("read model %s: empty network", path)
		}
		if err := net.SetPreferableBackend(gocv.NetBackendDefault); err != nil {
			_ = net.Close()
			return nil, fmt.Errorf("set backend: %w", err)
		}
		if err := net.SetPreferableTarget(gocv.NetTargetCPU); err != nil {
			_ = net.Close()
			return nil, fmt.Errorf("set target: %w", err)
		}
		l.Info("Model loaded", zap.String("path", path), zap.String("output_layer", outputLayer))
		return &Net{net: net, outputLayer: outputLayer}, nil
	}
}

func (n *Net) Embed(ctx context.Context, img domain.Image) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mat, err := gocv.IMDecode(img.Data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", img.Name, err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, fmt.Errorf("decode %s: empty image", img.Name)
	}

	blob := gocv.BlobFromImage(mat, 1.0/127.5, image.Pt(inputSize, inputSize), gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)
	defer blob.Close()

	n.mu.Lock()
	defer n.mu.Unlock()
	n.net.SetInput(blob, "")
	out := n.net.Forward(n.outputLayer)
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read embedding: %w", err)
	}
	vec := make([]float32, len(data))
	copy(vec, data)
	return vec, nil
}

func (n *Net) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.net.Close()
}
