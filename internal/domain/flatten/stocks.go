package flatten

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/ericfisherdev/coviddash/internal/domain/model"
)

var priceRecords = MustPath("data.*")

// Prices converts the data[] OHLC records of a stock response into price
// points in ascending time order. Timestamps are epoch milliseconds. Records
// with a null timestamp or price are skipped; a null volume reads as zero.
func Prices(doc any) ([]model.PricePoint, error) {
	rows, err := Columns(doc, priceRecords, "date", "open", "high", "low", "close")
	if err != nil {
		return nil, err
	}

	volumes, err := optionalVolumes(doc)
	if err != nil {
		return nil, err
	}

	points := make([]model.PricePoint, 0, len(rows))
	for i, row := range rows {
		ms, err := Int(row[0])
		if err != nil {
			return nil, fmt.Errorf("record %d date: %w", i, err)
		}

		var ohlc [4]float64
		for j := range ohlc {
			if ohlc[j], err = Float(row[j+1]); err != nil {
				return nil, fmt.Errorf("record %d: %w", i, err)
			}
		}

		points = append(points, model.PricePoint{
			Time:   time.UnixMilli(ms).UTC(),
			Open:   ohlc[0],
			High:   ohlc[1],
			Low:    ohlc[2],
			Close:  ohlc[3],
			Volume: volumes[ms],
		})
	}

	slices.SortStableFunc(points, func(a, b model.PricePoint) int {
		return cmp.Compare(a.Time.UnixMilli(), b.Time.UnixMilli())
	})
	return points, nil
}

// optionalVolumes indexes the volume of each record by timestamp. Records
// without a volume key or timestamp are ignored.
func optionalVolumes(doc any) (map[int64]float64, error) {
	recs, err := Walk(doc, priceRecords)
	if err != nil {
		return nil, err
	}

	volumes := make(map[int64]float64, len(recs))
	for i, rec := range recs {
		obj, ok := rec.(map[string]any)
		if !ok {
			continue
		}
		v, hasVolume := obj["volume"]
		d, hasDate := obj["date"]
		if !hasVolume || !hasDate || v == nil || d == nil {
			continue
		}
		ms, err := Int(d)
		if err != nil {
			return nil, fmt.Errorf("record %d date: %w", i, err)
		}
		vol, err := Float(v)
		if err != nil {
			return nil, fmt.Errorf("record %d volume: %w", i, err)
		}
		volumes[ms] = vol
	}
	return volumes, nil
}
