//go:build gocv
// +build gocv

package vision

import (
	"context"
	"fmt"

	"gocv.io/x/gocv"

	"docguard/internal/domain/entity"
	"docguard/internal/domain/port"
)

// knnNeighbours сосед номер один почти всегда сама точка, ещё три на тест отношения.
const knnNeighbours = 4

// Detect ищет пары похожих ключевых точек на заметном расстоянии друг от друга.
func (d *CopyMoveDetector) Detect(ctx context.Context, req port.DetectRequest) entity.Result[entity.CopyMoveMetrics] {
	buf, t := req.Buffer, req.Thresholds
	mat, err := toMat(buf)
	if err != nil {
		return entity.Unavailable[entity.CopyMoveMetrics](err.Error())
	}
	defer mat.Close()

	gray := grayMat(mat)
	defer gray.Close()

	orb := gocv.NewORBWithParams(t.CopyMoveMaxFeatures, 1.2, 8, 31, 0, 2, gocv.ORBScoreTypeHarris, 31, 20)
	defer orb.Close()

	mask := gocv.NewMat()
	defer mask.Close()
	kps, desc := orb.DetectAndCompute(gray, mask)
	defer desc.Close()

	if len(kps) < t.CopyMoveMinKeypoints || desc.Empty() {
		return entity.Unavailable[entity.CopyMoveMetrics](
			fmt.Sprintf("insufficient keypoints: %d < %d", len(kps), t.CopyMoveMinKeypoints))
	}
	if err := ctx.Err(); err != nil {
		return entity.Unavailable[entity.CopyMoveMetrics](err.Error())
	}

	bf := gocv.NewBFMatcherWithParams(gocv.NormHamming, false)
	defer bf.Close()
	raw := bf.KnnMatch(desc, desc, knnNeighbours)

	points := make([]keypoint, len(kps))
	for i, k := range kps {
		points[i] = keypoint{x: k.X, y: k.Y}
	}
	knn := make([][]candidate, len(kps))
	for _, row := range raw {
		for _, m := range row {
			if m.QueryIdx < 0 || m.QueryIdx >= len(knn) {
				continue
			}
			knn[m.QueryIdx] = append(knn[m.QueryIdx], candidate{train: m.TrainIdx, distance: m.Distance})
		}
	}

	matches := filterCopyMove(points, knn, t.CopyMoveRatio, t.CopyMoveMinDistance)
	density, score := copyMoveScore(len(matches), buf.Megapixels(), t.CopyMoveDensityCeiling)
	return entity.Available(entity.CopyMoveMetrics{
		Keypoints:  len(kps),
		MatchCount: len(matches),
		Density:    round3(density),
		Score:      round3(score),
		Matches:    matches,
	})
}
