package server

import (
	"context"
	"fmt"
	"strconv"

	"github.com/NextMind-AI/marlie/dialog"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	previewLength   = 80
)

// crmConversationsHandler handles GET /crm/conversations
func (s *Server) crmConversationsHandler(c fiber.Ctx) error {
	log.Info().Msg("Received CRM conversations request")

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	states, err := s.conversations.List(ctx, s.tenantID)
	if err != nil {
		log.Error().Err(err).Msg("Error listing conversations")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve conversation summaries",
			},
		})
	}

	page, pageSize := pagination(c)
	start, end, totalPages := pageBounds(len(states), page, pageSize)

	summaries := make([]ConversationSummary, 0, end-start)
	for _, st := range states[start:end] {
		summaries = append(summaries, summarize(st))
	}

	return c.JSON(ConversationListResponse{
		Conversations:   summaries,
		Total:           len(states),
		Page:            page,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	})
}

// crmConversationMessagesHandler handles GET /crm/conversations/{userId}
func (s *Server) crmConversationMessagesHandler(c fiber.Ctx) error {
	phone := dialog.NormalizePhone(c.Params("userId"))
	if phone == dialog.UnknownPhone {
		return invalidUserID(c)
	}

	log.Info().Str("user_id", phone).Msg("Received CRM conversation messages request")

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	st, err := s.conversations.Get(ctx, s.tenantID, phone)
	if err != nil {
		log.Error().Err(err).Str("user_id", phone).Msg("Error getting conversation")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve conversation messages",
			},
		})
	}
	if st == nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Conversation not found",
			},
		})
	}

	page, pageSize := pagination(c)
	start, end, totalPages := pageBounds(len(st.MessageHistory), page, pageSize)

	messages := make([]ConversationMessage, 0, end-start)
	for i, msg := range st.MessageHistory[start:end] {
		sender := "user"
		if msg.Role == dialog.RoleAssistant {
			sender = "system"
		}
		messages = append(messages, ConversationMessage{
			ID:        fmt.Sprintf("msg_%d_%d", msg.Timestamp.Unix(), start+i),
			Timestamp: msg.Timestamp.UTC().Format("2006-01-02T15:04:05Z"),
			Content:   msg.Content,
			Sender:    sender,
		})
	}

	return c.JSON(ConversationResponse{
		UserID: st.Phone,
		Step:   string(st.Step),
		Booking: BookingSnapshot{
			Service:      st.Slots.ServiceName,
			Date:         st.Slots.Date,
			Time:         st.Slots.Time,
			Professional: st.Slots.ProfessionalName,
			Awaiting:     string(st.Step.Awaiting()),
			BookingID:    st.Slots.LastBookingID,
		},
		Messages:        messages,
		TotalMessages:   len(st.MessageHistory),
		Page:            page,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	})
}

// crmDeleteConversationHandler handles DELETE /crm/conversations/{userId}
// and restarts the conversation on the next message.
func (s *Server) crmDeleteConversationHandler(c fiber.Ctx) error {
	phone := dialog.NormalizePhone(c.Params("userId"))
	if phone == dialog.UnknownPhone {
		return invalidUserID(c)
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if err := s.conversations.Delete(ctx, s.tenantID, phone); err != nil {
		log.Error().Err(err).Str("user_id", phone).Msg("Error deleting conversation")
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: ErrorDetail{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to delete conversation",
			},
		})
	}

	log.Info().Str("user_id", phone).Msg("Conversation deleted")
	return c.SendStatus(fiber.StatusNoContent)
}

func invalidUserID(c fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error: ErrorDetail{
			Code:    "INVALID_PARAMETER",
			Message: "userId must be a phone number",
		},
	})
}

func summarize(st *dialog.State) ConversationSummary {
	summary := ConversationSummary{
		UserID:          st.Phone,
		ContactName:     st.ContactInfo.Name,
		Step:            string(st.Step),
		Service:         st.Slots.ServiceName,
		LastMessageTime: st.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		MessageCount:    len(st.MessageHistory),
	}
	if n := len(st.MessageHistory); n > 0 {
		summary.LastMessagePreview = preview(st.MessageHistory[n-1].Content)
	}
	return summary
}

func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength]) + "..."
}

func pagination(c fiber.Ctx) (int, int) {
	page := 1
	pageSize := defaultPageSize

	if pageParam := c.Query("page"); pageParam != "" {
		if p, err := strconv.Atoi(pageParam); err == nil && p > 0 {
			page = p
		}
	}

	if pageSizeParam := c.Query("page_size"); pageSizeParam != "" {
		if ps, err := strconv.Atoi(pageSizeParam); err == nil && ps > 0 && ps <= maxPageSize {
			pageSize = ps
		}
	}

	return page, pageSize
}

// pageBounds returns the slice bounds of page within total items. Pages past
// the end are empty.
func pageBounds(total, page, pageSize int) (start, end, totalPages int) {
	totalPages = (total + pageSize - 1) / pageSize
	start = (page - 1) * pageSize
	if start > total {
		start = total
	}
	end = start + pageSize
	if end > total {
		end = total
	}
	return start, end, totalPages
}
