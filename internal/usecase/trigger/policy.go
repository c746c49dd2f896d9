package trigger

import (
	"sort"

	"github.com/simaogato/rebalance-backend/internal/domain"
)

// CapWeights returns a weight policy that clamps any asset above maxWeight
// and redistributes the excess across the uncapped assets in proportion to
// their current weights. It is one concrete replacement for the identity
// placeholder; wire it in cmd/server to activate it.
//
// Logic:
//  1. Sort assets by weight, heaviest first
//  2. Clamp every asset above the cap and pool the excess
//  3. Spread the pool over the remaining assets proportionally
//  4. Hand any unspreadable remainder back to the capped assets evenly
//
// Safety: the output always sums to the same total as the input.
func CapWeights(maxWeight float64) WeightPolicy {
	return func(current map[string]float64, _ []domain.Overlay) map[string]float64 {
		out := make(map[string]float64, len(current))

		assets := make([]string, 0, len(current))
		for asset := range current {
			assets = append(assets, asset)
		}
		sort.Slice(assets, func(i, j int) bool {
			if current[assets[i]] != current[assets[j]] {
				return current[assets[i]] > current[assets[j]]
			}
			return assets[i] < assets[j]
		})

		// Step 1: clamp and pool the excess
		excess := 0.0
		uncappedTotal := 0.0
		var capped, uncapped []string
		for _, asset := range assets {
			w := current[asset]
			if w > maxWeight {
				excess += w - maxWeight
				out[asset] = maxWeight
				capped = append(capped, asset)
			} else {
				out[asset] = w
				uncappedTotal += w
				uncapped = append(uncapped, asset)
			}
		}
		if excess == 0 {
			return out
		}

		// Step 2: spread the pool proportionally over the uncapped assets,
		// without pushing any of them over the cap themselves
		remaining := excess
		if uncappedTotal > 0 {
			for _, asset := range uncapped {
				share := excess * (current[asset] / uncappedTotal)
				headroom := maxWeight - out[asset]
				if share > headroom {
					share = headroom
				}
				out[asset] += share
				remaining -= share
			}
		}

		// Step 3: anything unspreadable goes back to the capped assets evenly,
		// so the total is preserved exactly
		if remaining > 0 && len(capped) > 0 {
			perAsset := remaining / float64(len(capped))
			for _, asset := range capped {
				out[asset] += perAsset
			}
		} else if remaining > 0 && len(uncapped) > 0 {
			perAsset := remaining / float64(len(uncapped))
			for _, asset := range uncapped {
				out[asset] += perAsset
			}
		}

		return out
	}
}
