package services

import (
	"fmt"

	"chowvest/internal/models"
	"chowvest/internal/money"
)

const (
	walletLink  = "/wallet"
	basketsLink = "/basket-goals"
)

func transactionNotification(userID string, txType models.TransactionType, amount money.Money) NotificationInput {
	var title, message string
	switch txType {
	case models.TransactionTypeDeposit:
		title = "Deposit Successful"
		message = fmt.Sprintf("Your wallet has been credited with %s", amount.Format())
	case models.TransactionTypeTransferToBasket:
		title = "Funds Added to Basket"
		message = fmt.Sprintf("%s transferred to your savings goal", amount.Format())
	case models.TransactionTypeTransferFromBasket:
		title = "Funds Received"
		message = fmt.Sprintf("%s transferred to your wallet", amount.Format())
	case models.TransactionTypeMarketPurchase:
		title = "Purchase Completed"
		message = fmt.Sprintf("Purchase of %s completed successfully", amount.Format())
	case models.TransactionTypeRefund:
		title = "Refund Processed"
		message = fmt.Sprintf("%s refunded to your wallet", amount.Format())
	default:
		title = "Transaction Update"
		message = fmt.Sprintf("Transaction of %s processed", amount.Format())
	}
	return NotificationInput{
		UserID:   userID,
		Type:     models.NotificationTypeTransaction,
		Title:    title,
		Message:  message,
		Link:     walletLink,
		Metadata: map[string]any{"transaction_type": txType, "amount": amount.String()},
	}
}

func milestoneNotification(basket *models.Basket, milestone int) NotificationInput {
	return NotificationInput{
		UserID:  basket.UserID,
		Type:    models.NotificationTypeBasketMilestone,
		Title:   fmt.Sprintf("🎯 %d%% Milestone Reached!", milestone),
		Message: fmt.Sprintf("Your %q goal is now %d%% complete!", basket.Name, milestone),
		Link:    basketsLink,
		Metadata: map[string]any{
			"basket_id":   basket.ID,
			"basket_name": basket.Name,
			"milestone":   milestone,
			"progress":    basket.Progress().String(),
		},
	}
}

func goalCompletedNotification(basket *models.Basket) NotificationInput {
	return NotificationInput{
		UserID:  basket.UserID,
		Type:    models.NotificationTypeGoalCompleted,
		Title:   "🎉 Goal Completed!",
		Message: fmt.Sprintf("Congratulations! You've reached your %q goal of %s!", basket.Name, basket.GoalAmount.Format()),
		Link:    basketsLink,
		Metadata: map[string]any{
			"basket_id":   basket.ID,
			"basket_name": basket.Name,
			"goal_amount": basket.GoalAmount.String(),
		},
	}
}

func deliveryRequestedNotification(basket *models.Basket) NotificationInput {
	return NotificationInput{
		UserID:   basket.UserID,
		Type:     models.NotificationTypeDelivery,
		Title:    "Delivery Requested",
		Message:  fmt.Sprintf("We've received your delivery request for %q. We'll be in touch to schedule it.", basket.Name),
		Link:     basketsLink,
		Metadata: map[string]any{"basket_id": basket.ID, "basket_name": basket.Name},
	}
}
