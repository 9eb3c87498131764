package repository

import (
	"context"
	"fmt"
	"time"

	"quantbt/types"
)

// intervalToBucket maps an interval to the TimescaleDB time_bucket width used
// to aggregate the stored one-minute candles.
var intervalToBucket = map[types.Interval]string{
	types.OneMinute:      "1 minute",
	types.ThreeMinutes:   "3 minutes",
	types.FiveMinutes:    "5 minutes",
	types.FifteenMinutes: "15 minutes",
	types.ThirtyMinutes:  "30 minutes",
	types.Hour:           "1 hour",
	types.TwoHours:       "2 hours",
	types.FourHours:      "4 hours",
	types.Day:            "1 day",
	types.Week:           "1 week",
}

const getAggregatesSQL = `
SELECT time_bucket($1::interval, timestamp) AS bucket,
       first(open, timestamp)               AS open,
       max(high)                            AS high,
       min(low)                             AS low,
       last(close, timestamp)               AS close,
       sum(volume)                          AS volume
FROM candles
WHERE asset_id = $2
  AND timestamp >= $3
  AND timestamp < $4
GROUP BY bucket
ORDER BY bucket`

// GetCandles retrieves the candles of an asset over [start, end), aggregated
// to the requested interval, oldest first.
func (db *Database) GetCandles(ctx context.Context, asset *types.Asset, interval types.Interval, start, end time.Time) ([]types.Candle, error) {
	bucket, ok := intervalToBucket[interval]
	if !ok {
		return nil, fmt.Errorf("interval %s %w", interval, ErrIntervalNotSupported)
	}

	candles, err := db.candles.getAggregates(ctx, asset.Id, bucket, start, end)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("ticker %s between %s and %s: %w",
			asset.Ticker, start.Format(time.RFC3339), end.Format(time.RFC3339), ErrNoCandles)
	}
	for i := range candles {
		candles[i].Ticker = asset.Ticker
		candles[i].Interval = interval
	}
	return candles, nil
}

// GetSeries is the one-call path the engine uses: resolve the ticker, fetch
// its candles and wrap them in a Series.
func (db *Database) GetSeries(ctx context.Context, ticker string, interval types.Interval, start, end time.Time) (*types.Series, error) {
	asset, err := db.GetAssetByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}
	candles, err := db.GetCandles(ctx, asset, interval, start, end)
	if err != nil {
		return nil, err
	}
	return types.NewSeries(asset.Ticker, interval, candles), nil
}

func (q *queries) getAggregates(ctx context.Context, assetID int, bucket string, start, end time.Time) ([]types.Candle, error) {
	rows, err := q.conn.Query(ctx, getAggregatesSQL, bucket, assetID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []types.Candle
	for rows.Next() {
		var c types.Candle
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}
	return candles, rows.Err()
}
