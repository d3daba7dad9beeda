package bridge

import (
	"context"
	"fmt"
	"net/http"

	"github.com/filswan/go-swan-lib/logs"
	"github.com/gstdnetwork/go-compute-bridge/models"
)

// EnsureLiquidity checks that the wallet can cover requiredGstd, letting
// the remote service top up the balance through a bounded TON swap when
// auto-conversion applies. autoSwap overrides the instance default when
// non-nil. The configured max swap amount is advisory metadata passed
// along; the remote service is the enforcing authority.
//
// The status snapshot is always re-fetched, never cached across calls.
func (b *Bridge) EnsureLiquidity(ctx context.Context, requiredGstd float64, autoSwap *bool) (*models.LiquidityStatus, *models.SwapReceipt, error) {
	if err := b.session.ensureInit(ctx); err != nil {
		return nil, nil, err
	}

	shouldSwap := b.autoSwapEnabled
	if autoSwap != nil {
		shouldSwap = *autoSwap
	}

	logs.GetLogger().Infof("checking liquidity, required: %.4f gstd, auto swap: %v", requiredGstd, shouldSwap)

	statusCode, body, err := b.session.do(ctx, http.MethodPost, "/bridge/liquidity", models.LiquidityRequest{
		WalletAddress:  b.session.WalletAddress(),
		RequiredGstd:   requiredGstd,
		AutoSwap:       shouldSwap,
		MaxAutoSwapTon: b.maxAutoSwapTon,
	})
	if err != nil {
		return nil, nil, err
	}

	if statusCode == http.StatusPaymentRequired {
		errBody := parseErrorBody(body)
		var available float64
		if errBody.Status != nil {
			available = errBody.Status.AvailableGstd
		}
		return errBody.Status, nil, &Error{
			Kind:          KindInsufficientFunds,
			Message:       fmt.Sprintf("insufficient gstd: have %.4f, need %.4f", available, requiredGstd),
			RequiredGstd:  requiredGstd,
			AvailableGstd: available,
		}
	}

	if statusCode != http.StatusOK {
		errBody := parseErrorBody(body)
		return nil, nil, connectivityErr(fmt.Sprintf("liquidity check failed, status code: %d, message: %s", statusCode, errBody.Message), nil)
	}

	var liquidityResp models.LiquidityResponse
	if err = unmarshalBody(body, &liquidityResp); err != nil {
		return nil, nil, err
	}

	status := liquidityResp.Status
	var receipt *models.SwapReceipt
	if liquidityResp.AutoSwapped && liquidityResp.Swap != nil {
		receipt = liquidityResp.Swap
		logs.GetLogger().Infof("auto swapped %.4f ton to %.4f gstd, tx: %s",
			receipt.AmountInTon, receipt.AmountOutGstd, receipt.TxHash)
	}

	// A partially filled conversion leaves the balance short; treat it the
	// same as insufficient funds rather than guessing a retry strategy.
	if status.AvailableGstd < requiredGstd {
		return &status, receipt, &Error{
			Kind:          KindInsufficientFunds,
			Message:       fmt.Sprintf("insufficient gstd after assurance: have %.4f, need %.4f", status.AvailableGstd, requiredGstd),
			RequiredGstd:  requiredGstd,
			AvailableGstd: status.AvailableGstd,
		}
	}

	logs.GetLogger().Infof("liquidity ok, available: %.4f gstd", status.AvailableGstd)
	return &status, receipt, nil
}
