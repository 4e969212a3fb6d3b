package service

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// Indonesian plate as it appears on the physical plate, possibly with
// the spaces dropped by OCR, e.g. "B1234ABC" or "B 1234 ABC".
var lprCandidateRegex = regexp.MustCompile(`^[A-Z]{1,2} ?[0-9]{1,4} ?[A-Z]{1,3}$`)

var lprSplitRegex = regexp.MustCompile(`^([A-Z]{1,2})([0-9]{1,4})([A-Z]{1,3})$`)

type LPRService struct {
	rekognitionClient *rekognition.Client
}

func NewLPRService(rekClient *rekognition.Client) *LPRService {
	return &LPRService{rekognitionClient: rekClient}
}

// RecognizePlate runs Rekognition text detection over the image and
// returns the highest-confidence candidate that looks like a plate,
// reformatted with canonical spacing ("B 1234 ABC").
func (s *LPRService) RecognizePlate(ctx context.Context, imageBytes []byte) (string, float32, error) {
	if s.rekognitionClient == nil {
		return "", 0, fmt.Errorf("rekognition client not configured")
	}

	input := &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: imageBytes},
	}
	result, err := s.rekognitionClient.DetectText(ctx, input)
	if err != nil {
		return "", 0, fmt.Errorf("rekognition DetectText: %w", err)
	}

	var bestPlate string
	var bestConfidence float32
	var seen []string

	for _, detection := range result.TextDetections {
		if detection.Type != types.TextTypesLine && detection.Type != types.TextTypesWord {
			continue
		}
		if detection.DetectedText == nil || detection.Confidence == nil {
			continue
		}
		candidate := strings.ToUpper(strings.TrimSpace(*detection.DetectedText))
		seen = append(seen, fmt.Sprintf("%s (%.1f)", candidate, *detection.Confidence))
		if !lprCandidateRegex.MatchString(candidate) {
			continue
		}
		if *detection.Confidence > bestConfidence {
			bestConfidence = *detection.Confidence
			bestPlate = canonicalPlate(candidate)
		}
	}

	if bestPlate == "" {
		return "", 0, fmt.Errorf("no plate recognized in image (text seen: %s)", strings.Join(seen, ", "))
	}
	log.Printf("LPR picked plate '%s' with confidence %.1f", bestPlate, bestConfidence)
	return bestPlate, bestConfidence, nil
}

// canonicalPlate restores the spacing OCR tends to drop.
func canonicalPlate(candidate string) string {
	compact := strings.ReplaceAll(candidate, " ", "")
	if m := lprSplitRegex.FindStringSubmatch(compact); m != nil {
		return m[1] + " " + m[2] + " " + m[3]
	}
	return candidate
}
