package ocr

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Preprocessor transforms an image before recognition.
type Preprocessor interface {
	Process(img image.Image) (image.Image, error)
}

// Chain applies preprocessors in order.
type Chain []Preprocessor

// Step names accepted by NewChain.
const (
	StepGrayscale = "grayscale"
	StepContrast  = "contrast"
	StepSharpen   = "sharpen"
	StepDenoise   = "denoise"
	StepBinarize  = "binarize"
)

// DefaultSteps is tuned for photographed or scanned tickets.
var DefaultSteps = []string{StepGrayscale, StepContrast, StepSharpen}

func DefaultChain() Chain {
	chain, _ := NewChain(DefaultSteps)
	return chain
}

// NewChain builds a chain from step names, case-insensitively. Unknown names
// are an error.
func NewChain(steps []string) (Chain, error) {
	chain := make(Chain, 0, len(steps))
	for _, step := range steps {
		switch strings.ToLower(strings.TrimSpace(step)) {
		case StepGrayscale:
			chain = append(chain, NewGrayscaleProcessor())
		case StepContrast:
			chain = append(chain, NewContrastProcessor(20))
		case StepSharpen:
			chain = append(chain, NewSharpenProcessor(0.5))
		case StepDenoise:
			chain = append(chain, NewDenoiseProcessor(1))
		case StepBinarize:
			chain = append(chain, NewBinarizationProcessor(128))
		default:
			return nil, fmt.Errorf("unknown preprocessing step %q", step)
		}
	}
	return chain, nil
}

func (c Chain) Apply(img image.Image) (image.Image, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}

	var err error
	result := img
	for _, p := range c {
		result, err = p.Process(result)
		if err != nil {
			return nil, fmt.Errorf("preprocessing failed: %w", err)
		}
		if result == nil {
			return nil, fmt.Errorf("preprocessor returned nil image")
		}
	}
	return result, nil
}

type GrayscaleProcessor struct{}

func NewGrayscaleProcessor() *GrayscaleProcessor {
	return &GrayscaleProcessor{}
}

func (p *GrayscaleProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Grayscale(img), nil
}

type ContrastProcessor struct {
	amount float64
}

// NewContrastProcessor takes a percentage in [-100, 100].
func NewContrastProcessor(amount float64) *ContrastProcessor {
	return &ContrastProcessor{amount: amount}
}

func (p *ContrastProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.AdjustContrast(img, p.amount), nil
}

type SharpenProcessor struct {
	sigma float64
}

func NewSharpenProcessor(sigma float64) *SharpenProcessor {
	return &SharpenProcessor{sigma: sigma}
}

func (p *SharpenProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Sharpen(img, p.sigma), nil
}

// DenoiseProcessor smooths sensor noise with a gaussian blur.
type DenoiseProcessor struct {
	sigma float64
}

func NewDenoiseProcessor(sigma float64) *DenoiseProcessor {
	return &DenoiseProcessor{sigma: sigma}
}

func (p *DenoiseProcessor) Process(img image.Image) (image.Image, error) {
	return imaging.Blur(img, p.sigma), nil
}

type BinarizationProcessor struct {
	threshold uint8
}

func NewBinarizationProcessor(threshold uint8) *BinarizationProcessor {
	return &BinarizationProcessor{threshold: threshold}
}

func (p *BinarizationProcessor) Process(img image.Image) (image.Image, error) {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	binary := image.NewGray(bounds)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			v := color.GrayModel.Convert(gray.At(x, y)).(color.Gray).Y
			if v > p.threshold {
				binary.SetGray(x, y, color.Gray{Y: 0xff})
			} else {
				binary.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return binary, nil
}
