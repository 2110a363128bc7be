package model

import (
	"time"

	"github.com/prizeloop/backend/internal/entity"
)

func ConvertDraw(draw *entity.Draw) Draw {
	result := Draw{
		ID:                  draw.ID,
		Name:                draw.Name,
		Type:                string(draw.Type),
		Status:              string(draw.Status),
		DrawDate:            draw.DrawDate,
		MinimumEntries:      draw.MinimumEntries,
		TotalEntries:        draw.TotalEntries,
		ConfigurationLocked: draw.ConfigurationLocked,
		PrizeName:           draw.PrizeName,
		PrizeDescription:    draw.PrizeDescription,
		PrizeValue:          draw.PrizeValue,
	}

	if draw.ActivationDate.Valid {
		result.ActivationDate = timePtr(draw.ActivationDate.Time)
	}

	if draw.FreezeEntriesAt.Valid {
		result.FreezeEntriesAt = timePtr(draw.FreezeEntriesAt.Time)
	}

	return result
}

func ConvertDrawEntry(entry *entity.DrawEntry) DrawEntry {
	return DrawEntry{
		DrawID:            entry.DrawID,
		UserID:            entry.UserID,
		TotalEntries:      entry.TotalEntries,
		MembershipEntries: entry.MembershipEntries,
		OneTimeEntries:    entry.OneTimeEntries,
		UpsellEntries:     entry.UpsellEntries,
		MiniDrawEntries:   entry.MiniDrawEntries,
		ReferralEntries:   entry.ReferralEntries,
		FirstAddedAt:      entry.FirstAddedAt,
		LastUpdatedAt:     entry.LastUpdatedAt,
	}
}

func ConvertPartnerDiscountItem(item *entity.PartnerDiscountItem) PartnerDiscountItem {
	result := PartnerDiscountItem{
		PackageID:        item.PackageID,
		PackageType:      string(item.PackageType),
		PaymentReference: item.PaymentReference,
		DiscountHours:    item.DiscountHours,
		IsSubscription:   item.IsSubscription,
		Status:           string(item.Status),
		QueuePosition:    item.QueuePosition,
		PurchaseDate:     item.PurchaseDate,
		ExpiryDate:       item.ExpiryDate,
	}

	if item.StartDate.Valid {
		result.StartDate = timePtr(item.StartDate.Time)
	}

	if item.EndDate.Valid {
		result.EndDate = timePtr(item.EndDate.Time)
	}

	return result
}

func timePtr(t time.Time) *time.Time {
	return &t
}
