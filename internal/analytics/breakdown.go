package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"campusfin/internal/models"
)

const uncategorized = "Uncategorized"

// CategoryStat is one row of a category breakdown.
type CategoryStat struct {
	CategoryID   string                 `json:"category_id"`
	CategoryName string                 `json:"category_name"`
	CategoryType models.TransactionType `json:"category_type"`
	Icon         string                 `json:"icon,omitempty"`
	Color        string                 `json:"color,omitempty"`
	Total        decimal.Decimal        `json:"total"`
	Count        int                    `json:"count"`
	Average      decimal.Decimal        `json:"average"`
	LastUsed     time.Time              `json:"last_used"`
	Percentage   float64                `json:"percentage"`
}

// CategoryBreakdown groups transactions in w by category, optionally
// restricted to one transaction type. Percentages are shares of the total
// across all categories, so they still sum to ~100 when limit truncates the
// list. Rows are ordered by total descending, then category id.
func CategoryBreakdown(
	txs []models.Transaction,
	w Window,
	txType *models.TransactionType,
	categories map[string]models.Category,
	limit int,
) []CategoryStat {
	byID := make(map[string]*CategoryStat)
	grand := decimal.Zero

	for i := range txs {
		tx := &txs[i]
		if !w.Contains(tx.TransactionDate) {
			continue
		}
		if txType != nil && tx.Type != *txType {
			continue
		}

		stat, ok := byID[tx.CategoryID]
		if !ok {
			stat = &CategoryStat{
				CategoryID:   tx.CategoryID,
				CategoryName: uncategorized,
				CategoryType: tx.Type,
				Total:        decimal.Zero,
			}
			if cat, found := categories[tx.CategoryID]; found {
				stat.CategoryName = cat.Name
				stat.Icon = cat.Icon
				stat.Color = cat.Color
			}
			byID[tx.CategoryID] = stat
		}

		stat.Total = stat.Total.Add(tx.Amount)
		stat.Count++
		if tx.TransactionDate.After(stat.LastUsed) {
			stat.LastUsed = tx.TransactionDate
		}
		grand = grand.Add(tx.Amount)
	}

	stats := make([]CategoryStat, 0, len(byID))
	for _, stat := range byID {
		stat.Average = stat.Total.Div(decimal.NewFromInt(int64(stat.Count))).Round(2)
		if grand.IsPositive() {
			pct, _ := stat.Total.Div(grand).Mul(hundred).Float64()
			stat.Percentage = round1(pct)
		}
		stats = append(stats, *stat)
	}

	sort.Slice(stats, func(i, j int) bool {
		if c := stats[i].Total.Cmp(stats[j].Total); c != 0 {
			return c > 0
		}
		return stats[i].CategoryID < stats[j].CategoryID
	})

	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
