package payment

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// ProcessingFee computes the charge a gateway takes on an amount:
// amount * percent/100 + fixed, rounded to the currency minor unit.
func ProcessingFee(cfg GatewayConfig, amount float64) float64 {
	return round2(amount*cfg.PercentFee/100 + cfg.FixedFee)
}

// NetAmount is the amount credited after the fee is deducted.
func NetAmount(amount, fee float64) float64 {
	return round2(amount - fee)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// GenerateReference produces a payment reference of the form
// PAY-<epoch-millis>-<random-base36>. Not collision-proof across
// restarts within the same millisecond, which is acceptable for a
// human-facing reference; the row id stays the real key.
func GenerateReference() string {
	suffix := strings.ToUpper(strconv.FormatInt(rand.Int63n(36*36*36*36*36*36), 36))
	return fmt.Sprintf("PAY-%d-%06s", time.Now().UnixMilli(), suffix)
}
