package market

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"predifi/events"
)

const (
	EventTypeInitialized       = "market.initialized"
	EventTypePaused            = "market.paused"
	EventTypeUnpaused          = "market.unpaused"
	EventTypeFeeUpdated        = "market.fee_updated"
	EventTypeTreasuryUpdated   = "market.treasury_updated"
	EventTypePoolCreated       = "market.pool_created"
	EventTypePoolResolved      = "market.pool_resolved"
	EventTypePoolCancelled     = "market.pool_cancelled"
	EventTypePredictionPlaced  = "market.prediction_placed"
	EventTypeWinningsClaimed   = "market.winnings_claimed"
	EventTypePriceFeedUpdated  = "market.price_feed_updated"
	EventTypePriceFeedRemoved  = "market.price_feed_removed"
	EventTypePriceConditionSet = "market.price_condition_set"
)

func attrAddress(addr [20]byte) string {
	return hex.EncodeToString(addr[:])
}

func attrAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func newInitializedEvent(treasury [20]byte, feeBps uint32) *events.Event {
	return &events.Event{Type: EventTypeInitialized, Attributes: map[string]string{
		"treasury": attrAddress(treasury),
		"feeBps":   strconv.FormatUint(uint64(feeBps), 10),
	}}
}

func newPausedEvent(eventType string, admin [20]byte) *events.Event {
	return &events.Event{Type: eventType, Attributes: map[string]string{
		"admin": attrAddress(admin),
	}}
}

func newFeeUpdatedEvent(admin [20]byte, feeBps uint32) *events.Event {
	return &events.Event{Type: EventTypeFeeUpdated, Attributes: map[string]string{
		"admin":  attrAddress(admin),
		"feeBps": strconv.FormatUint(uint64(feeBps), 10),
	}}
}

func newTreasuryUpdatedEvent(admin, treasury [20]byte) *events.Event {
	return &events.Event{Type: EventTypeTreasuryUpdated, Attributes: map[string]string{
		"admin":    attrAddress(admin),
		"treasury": attrAddress(treasury),
	}}
}

func newPoolCreatedEvent(p *Pool, creator [20]byte) *events.Event {
	attrs := map[string]string{"creator": attrAddress(creator)}
	if p != nil {
		attrs["poolId"] = strconv.FormatUint(p.ID, 10)
		attrs["token"] = p.Token
		attrs["endTime"] = strconv.FormatInt(p.EndTime, 10)
		attrs["optionsCount"] = strconv.FormatUint(uint64(p.OptionsCount), 10)
		attrs["feeBps"] = strconv.FormatUint(uint64(p.Config.FeeBps), 10)
	}
	return &events.Event{Type: EventTypePoolCreated, Attributes: attrs}
}

func newPoolResolvedEvent(poolID uint64, operator [20]byte, outcome uint32) *events.Event {
	return &events.Event{Type: EventTypePoolResolved, Attributes: map[string]string{
		"poolId":   strconv.FormatUint(poolID, 10),
		"operator": attrAddress(operator),
		"outcome":  strconv.FormatUint(uint64(outcome), 10),
	}}
}

func newPoolCancelledEvent(poolID uint64, operator [20]byte) *events.Event {
	return &events.Event{Type: EventTypePoolCancelled, Attributes: map[string]string{
		"poolId":   strconv.FormatUint(poolID, 10),
		"operator": attrAddress(operator),
	}}
}

func newPredictionPlacedEvent(poolID uint64, user [20]byte, amount *big.Int, outcome uint32) *events.Event {
	return &events.Event{Type: EventTypePredictionPlaced, Attributes: map[string]string{
		"poolId":  strconv.FormatUint(poolID, 10),
		"user":    attrAddress(user),
		"amount":  attrAmount(amount),
		"outcome": strconv.FormatUint(uint64(outcome), 10),
	}}
}

func newWinningsClaimedEvent(poolID uint64, user [20]byte, amount, fee *big.Int, result string) *events.Event {
	return &events.Event{Type: EventTypeWinningsClaimed, Attributes: map[string]string{
		"poolId": strconv.FormatUint(poolID, 10),
		"user":   attrAddress(user),
		"amount": attrAmount(amount),
		"fee":    attrAmount(fee),
		"result": result,
	}}
}

func newPriceFeedUpdatedEvent(feed *PriceFeed, oracle [20]byte) *events.Event {
	attrs := map[string]string{"oracle": attrAddress(oracle)}
	if feed != nil {
		attrs["pair"] = feed.Pair
		attrs["price"] = attrAmount(feed.Price)
		attrs["confidence"] = attrAmount(feed.Confidence)
		attrs["timestamp"] = strconv.FormatInt(feed.Timestamp, 10)
		attrs["expiresAt"] = strconv.FormatInt(feed.ExpiresAt, 10)
	}
	return &events.Event{Type: EventTypePriceFeedUpdated, Attributes: attrs}
}

func newPriceFeedRemovedEvent(pair string) *events.Event {
	return &events.Event{Type: EventTypePriceFeedRemoved, Attributes: map[string]string{
		"pair": pair,
	}}
}

func newPriceConditionSetEvent(poolID uint64, caller [20]byte, cond *PriceCondition) *events.Event {
	attrs := map[string]string{
		"poolId": strconv.FormatUint(poolID, 10),
		"caller": attrAddress(caller),
	}
	if cond != nil {
		attrs["pair"] = cond.Pair
		attrs["targetPrice"] = attrAmount(cond.TargetPrice)
		attrs["operator"] = strconv.FormatUint(uint64(cond.Operator), 10)
		attrs["toleranceBps"] = strconv.FormatUint(uint64(cond.ToleranceBps), 10)
	}
	return &events.Event{Type: EventTypePriceConditionSet, Attributes: attrs}
}
