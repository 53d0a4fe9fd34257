package ledger

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
)

func TestMissingAcquisitionError(t *testing.T) {
	err := &MissingAcquisitionError{Asset: asset.ETH, Time: 1600000000, Date: "13/09/2020 12:26:40 UTC"}

	assert.Equal(t,
		"No documented acquisition found for ETH before 13/09/2020 12:26:40 UTC. Add how you acquired it to the event stream",
		err.Error())
	assert.Equal(t, asset.ETH, err.GetAsset())
	assert.Equal(t, event.Timestamp(1600000000), err.GetTime())

	var wrapped error = errors.Join(errors.New("replay"), err)
	var target *MissingAcquisitionError
	assert.True(t, errors.As(wrapped, &target))
}

func TestInsufficientAcquisitionError(t *testing.T) {
	err := &InsufficientAcquisitionError{
		Asset:   asset.BTC,
		Time:    1600000000,
		Date:    "13/09/2020 12:26:40 UTC",
		Found:   d("5"),
		Missing: d("3"),
	}

	msg := err.Error()
	assert.Contains(t, msg, "Not enough documented acquisitions found for BTC")
	assert.Contains(t, msg, "Only found acquisitions for 5 BTC and miss 3 BTC")
	assert.Equal(t, asset.BTC, err.GetAsset())
}

func TestDeserializationError(t *testing.T) {
	assert.Equal(t,
		`could not decode cost basis info due to missing key "time"`,
		(&DeserializationError{Key: "time"}).Error())
	assert.Equal(t,
		`could not decode cost basis info: key "rate" is not a decimal`,
		(&DeserializationError{Key: "rate", Reason: "is not a decimal"}).Error())
}
