package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyAging(t *testing.T) {
	tests := []struct {
		name     string
		status   InvoiceStatus
		balance  string
		dueDays  int
		wantOK   bool
		want     AgingBucket
		wantDays int
	}{
		{"draft excluded", InvoiceStatusDraft, "100", -10, false, "", 0},
		{"cancelled excluded", InvoiceStatusCancelled, "100", -10, false, "", 0},
		{"settled", InvoiceStatusPaid, "0", -100, true, AgingPaid, 0},
		{"due today", InvoiceStatusSent, "100", 0, true, AgingCurrent, 0},
		{"due later", InvoiceStatusSent, "100", 5, true, AgingCurrent, 0},
		{"one day late", InvoiceStatusOverdue, "100", -1, true, Aging1To30, 1},
		{"thirty days late", InvoiceStatusOverdue, "100", -30, true, Aging1To30, 30},
		{"thirty one days late", InvoiceStatusPartial, "100", -31, true, Aging31To60, 31},
		{"sixty days late", InvoiceStatusOverdue, "100", -60, true, Aging31To60, 60},
		{"ninety days late", InvoiceStatusOverdue, "100", -90, true, Aging61To90, 90},
		{"ninety one days late", InvoiceStatusOverdue, "100", -91, true, AgingOver90, 91},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{
				Status:     tt.status,
				BalanceDue: dec(tt.balance),
				DueDate:    dateOnly(testNow).AddDate(0, 0, tt.dueDays),
			}

			got, ok := ClassifyAging(inv, testNow)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got.Bucket)
			assert.Equal(t, tt.wantDays, got.DaysOverdue)
		})
	}
}

func TestAgingBuckets_Order(t *testing.T) {
	assert.Equal(t, []AgingBucket{"Paid", "Current", "1-30 Days", "31-60 Days", "61-90 Days", "Over 90 Days"}, AgingBuckets)
}
