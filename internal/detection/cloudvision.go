package detection

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	apperrors "go-lingualens/internal/errors"
	"go-lingualens/internal/logger"
	"go-lingualens/pkg/models"
)

// maxObjects caps every detection result, on every code path.
const maxObjects = 4

// conceptDisplayNames maps raw vendor concept labels to curated
// human-readable names. Lookup is exact lowercase match first, then
// substring containment against these keys.
var conceptDisplayNames = map[string]string{
	"dog":          "Dog",
	"canine":       "Dog",
	"puppy":        "Dog",
	"cat":          "Cat",
	"feline":       "Cat",
	"kitten":       "Cat",
	"bird":         "Bird",
	"animal":       "Animal",
	"wildlife":     "Animal",
	"people":       "Person",
	"person":       "Person",
	"man":          "Person",
	"woman":        "Person",
	"child":        "Person",
	"portrait":     "Person",
	"tree":         "Tree",
	"forest":       "Tree",
	"wood":         "Tree",
	"vegetation":   "Plant",
	"plant":        "Plant",
	"leaf":         "Foliage",
	"flower":       "Flower",
	"flora":        "Plant",
	"grass":        "Grass",
	"sky":          "Sky",
	"cloud":        "Cloud",
	"sun":          "Sky",
	"water":        "Water",
	"sea":          "Water",
	"ocean":        "Water",
	"lake":         "Water",
	"river":        "Water",
	"beach":        "Beach",
	"mountain":     "Mountain",
	"landscape":    "Landscape",
	"nature":       "Nature",
	"outdoors":     "Nature",
	"sunset":       "Sunset",
	"food":         "Food",
	"meal":         "Food",
	"fruit":        "Food",
	"vegetable":    "Food",
	"vehicle":      "Vehicle",
	"car":          "Car",
	"transportation": "Vehicle",
	"building":     "Building",
	"architecture": "Building",
	"house":        "Building",
	"city":         "City",
	"street":       "Street",
	"road":         "Street",
	"text":         "Document",
	"paper":        "Document",
	"document":     "Document",
	"book":         "Book",
	"computer":     "Computer",
	"technology":   "Technology",
	"furniture":    "Furniture",
	"indoors":      "Indoor Scene",
	"room":         "Indoor Scene",
}

// CloudVisionClient wraps a Clarifai-style image classification endpoint.
// Classify fails with a RemoteServiceError on any transport error, timeout,
// or empty confident result; the orchestrator catches it and falls back.
type CloudVisionClient struct {
	http          *resty.Client
	endpoint      string
	apiKey        string
	minConfidence float64
}

type clarifaiRequest struct {
	Inputs []clarifaiInput `json:"inputs"`
}

type clarifaiInput struct {
	Data clarifaiInputData `json:"data"`
}

type clarifaiInputData struct {
	Image clarifaiImage `json:"image"`
}

type clarifaiImage struct {
	Base64 string `json:"base64"`
}

type clarifaiResponse struct {
	Outputs []struct {
		Data struct {
			Concepts []clarifaiConcept `json:"concepts"`
		} `json:"data"`
	} `json:"outputs"`
}

type clarifaiConcept struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// NewCloudVisionClient creates the classifier client. timeout bounds every
// request end to end; minConfidence filters weak concepts before mapping.
func NewCloudVisionClient(endpoint, apiKey string, timeout time.Duration, minConfidence float64) *CloudVisionClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if minConfidence <= 0 {
		minConfidence = 0.75
	}

	httpClient := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Key "+apiKey)

	return &CloudVisionClient{
		http:          httpClient,
		endpoint:      endpoint,
		apiKey:        apiKey,
		minConfidence: minConfidence,
	}
}

// Classify encodes the image, calls the classification endpoint, and
// returns the top confident concepts mapped to curated names.
func (c *CloudVisionClient) Classify(ctx context.Context, imagePath string) (models.ObjectDetectionResult, error) {
	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return models.ObjectDetectionResult{}, apperrors.NewRemoteServiceError("cloud_vision", "failed to read image", err)
	}

	req := clarifaiRequest{
		Inputs: []clarifaiInput{{
			Data: clarifaiInputData{Image: clarifaiImage{Base64: base64.StdEncoding.EncodeToString(raw)}},
		}},
	}

	var parsed clarifaiResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&parsed).
		Post(c.endpoint)
	if err != nil {
		return models.ObjectDetectionResult{}, apperrors.NewRemoteServiceError("cloud_vision", "classification request failed", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return models.ObjectDetectionResult{}, apperrors.NewRemoteServiceError(
			"cloud_vision",
			fmt.Sprintf("classification returned status %d", resp.StatusCode()),
			nil,
		)
	}

	var concepts []clarifaiConcept
	for _, out := range parsed.Outputs {
		concepts = append(concepts, out.Data.Concepts...)
	}

	objects := make([]models.DetectedObject, 0, len(concepts))
	for _, concept := range concepts {
		if concept.Value < c.minConfidence {
			continue
		}
		objects = append(objects, models.DetectedObject{
			Name:          FormatConceptName(concept.Name),
			Confidence:    clampUnit(concept.Value),
			OriginalLabel: concept.Name,
		})
	}
	if len(objects) == 0 {
		return models.ObjectDetectionResult{}, apperrors.NewRemoteServiceError("cloud_vision", "no confident detections", nil)
	}

	sort.SliceStable(objects, func(i, j int) bool {
		return objects[i].Confidence > objects[j].Confidence
	})
	if len(objects) > maxObjects {
		objects = objects[:maxObjects]
	}

	logger.WithFields(logrus.Fields{
		"objects":      len(objects),
		"raw_concepts": len(concepts),
	}).Debug("Cloud vision classification succeeded")

	return models.ObjectDetectionResult{
		Objects:         objects,
		EngineUsed:      models.EngineCloudVision,
		RawConceptCount: len(concepts),
	}, nil
}

var (
	sortedConceptKeys     []string
	sortedConceptKeysOnce sync.Once
)

// conceptKeys returns the dictionary keys in a fixed order so substring
// matching is deterministic.
func conceptKeys() []string {
	sortedConceptKeysOnce.Do(func() {
		sortedConceptKeys = make([]string, 0, len(conceptDisplayNames))
		for k := range conceptDisplayNames {
			sortedConceptKeys = append(sortedConceptKeys, k)
		}
		sort.Strings(sortedConceptKeys)
	})
	return sortedConceptKeys
}

// FormatConceptName maps a raw vendor label to a curated display name.
// Pure function: exact lowercase dictionary match, then substring
// containment against dictionary keys, then plain capitalization.
func FormatConceptName(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if key == "" {
		return ""
	}
	if display, ok := conceptDisplayNames[key]; ok {
		return display
	}
	for _, dictKey := range conceptKeys() {
		if strings.Contains(key, dictKey) {
			return conceptDisplayNames[dictKey]
		}
	}
	return capitalize(key)
}

func capitalize(s string) string {
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
