package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
)

// parsePoint parses "x,y".
func parsePoint(s string) (model.Point, error) {
	xs, err := parseFloats(s, 2)
	if err != nil {
		return model.Point{}, fmt.Errorf("invalid point %q (want x,y): %w", s, err)
	}
	return model.Point{X: xs[0], Y: xs[1]}, nil
}

// parseSize parses "WxH" or "W,H".
func parseSize(s string) (canvas.Size, error) {
	xs, err := parseFloats(strings.ReplaceAll(strings.ToLower(s), "x", ","), 2)
	if err != nil {
		return canvas.Size{}, fmt.Errorf("invalid size %q (want WxH): %w", s, err)
	}
	return canvas.Size{W: xs[0], H: xs[1]}, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d numbers", n)
	}
	out := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseKeys(args []string) ([]model.ItemKey, error) {
	out := make([]model.ItemKey, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			k, err := model.ParseItemKey(part)
			if err != nil {
				return nil, err
			}
			out = append(out, k)
		}
	}
	return out, nil
}

func parseSourceKind(s string) (model.SourceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "file":
		return model.SourceFile, nil
	case "member":
		return model.SourceMember, nil
	default:
		return "", fmt.Errorf("invalid kind: %q (expected file|member)", s)
	}
}

func splitIDs(ids []string) []string {
	var out []string
	for _, s := range ids {
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
