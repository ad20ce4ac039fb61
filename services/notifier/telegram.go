// Package notifier is the Telegram front end: it serves the subscription
// commands and delivers grade-change notifications to subscribed users.
package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/oralet86/au-notlar/services/gradestore"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Service struct {
	bot   *tgbotapi.BotAPI
	store gradestore.Store
}

func NewService(token string, store gradestore.Store) (*Service, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	return &Service{
		bot:   bot,
		store: store,
	}, nil
}

// Start registers the command menu and consumes updates until the context
// is cancelled.
func (s *Service) Start(ctx context.Context) {
	_, err := s.bot.Request(tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "bolumler", Description: "Notları takip edilen bölümler"},
		tgbotapi.BotCommand{Command: "bildirimlerim", Description: "Bildirimlerini takip ettiğiniz dersler"},
	))
	if err != nil {
		slog.WarnContext(ctx, "failed to register bot commands", "err", err)
	}

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := s.bot.GetUpdatesChan(updateConfig)

	go func() {
		<-ctx.Done()
		s.bot.StopReceivingUpdates()
	}()

	slog.InfoContext(ctx, "telegram bot listening", "bot", s.bot.Self.UserName)
	for update := range updates {
		switch {
		case update.Message != nil && update.Message.IsCommand():
			s.handleCommand(ctx, update.Message)
		case update.CallbackQuery != nil:
			s.handleCallback(ctx, update.CallbackQuery)
		}
	}
}

func (s *Service) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		s.reply(ctx, msg.Chat.ID, fmt.Sprintf(
			"Merhaba, <b>%s</b>\nNotları takip edilen bölümleri görmek için: /bolumler",
			msg.From.FirstName,
		), nil)
	case "bolumler":
		s.sendDepartmentList(ctx, msg.Chat.ID)
	case "bildirimlerim":
		s.sendSubscriptionList(ctx, msg.Chat.ID, userId(msg.From))
	}
}

func (s *Service) sendDepartmentList(ctx context.Context, chatId int64) {
	departments, err := s.store.Departments(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list departments", "err", err)
		s.reply(ctx, chatId, "Bölümler şu anda listelenemiyor.", nil)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, dept := range departments {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(dept.Name, fmt.Sprintf("dept_%d", dept.ID)),
		))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	s.reply(ctx, chatId,
		"Anlık notları takip edilen bölümler aşağıdadır.\nBir bölüme tıklayarak derslerini görebilirsiniz.",
		&keyboard,
	)
}

func (s *Service) sendSubscriptionList(ctx context.Context, chatId int64, user string) {
	lectures, err := s.store.UserSubscriptions(ctx, user)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list subscriptions", "user", user, "err", err)
		s.reply(ctx, chatId, "Bildirimleriniz şu anda listelenemiyor.", nil)
		return
	}
	if len(lectures) == 0 {
		s.reply(ctx, chatId, "Takip ettiğiniz ders bulunmuyor. /bolumler üzerinden ders ekleyebilirsiniz.", nil)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, lecture := range lectures {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(lecture.Name, fmt.Sprintf("lecture_%d", lecture.ID)),
		))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	s.reply(ctx, chatId,
		"Bildirimlerini takip ettiğiniz dersler aşağıdadır.\nBir derse tıklayarak bildirimlerini kapatabilirsiniz.",
		&keyboard,
	)
}

func (s *Service) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Message is nil for callbacks on messages too old to access
	if query.Message == nil {
		return
	}

	defer func() {
		_, err := s.bot.Request(tgbotapi.NewCallback(query.ID, ""))
		if err != nil {
			slog.WarnContext(ctx, "failed to answer callback", "err", err)
		}
	}()

	prefix, rest, found := strings.Cut(query.Data, "_")
	if !found {
		return
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		slog.WarnContext(ctx, "malformed callback data", "data", query.Data)
		return
	}

	chatId := query.Message.Chat.ID
	switch prefix {
	case "dept":
		s.sendLectureList(ctx, chatId, id)
	case "lecture":
		s.toggleSubscription(ctx, chatId, id, userId(query.From))
	}
}

func (s *Service) sendLectureList(ctx context.Context, chatId, departmentId int64) {
	name, err := s.store.DepartmentName(ctx, departmentId)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get department", "department", departmentId, "err", err)
		return
	}
	lectures, err := s.store.Lectures(ctx, departmentId)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list lectures", "department", departmentId, "err", err)
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for _, lecture := range lectures {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(lecture.Name, fmt.Sprintf("lecture_%d", lecture.ID)),
		))
	}
	keyboard := tgbotapi.NewInlineKeyboardMarkup(rows...)
	s.reply(ctx, chatId, fmt.Sprintf(
		"<b>%s</b> bölümünde takip edilen dersler aşağıdadır.\nBir derse tıklayarak not bildirimlerini açabilirsiniz.",
		name,
	), &keyboard)
}

// toggleSubscription flips the user's subscription for a lecture. Store
// faults are logged and reported to the user as a failure message, never
// propagated further.
func (s *Service) toggleSubscription(ctx context.Context, chatId, lectureId int64, user string) {
	name, err := s.store.LectureName(ctx, lectureId)
	if err != nil {
		slog.ErrorContext(ctx, "failed to get lecture", "lecture", lectureId, "err", err)
		s.reply(ctx, chatId, "İşlem şu anda gerçekleştirilemiyor.", nil)
		return
	}

	subscribed, err := s.store.IsSubscribed(ctx, lectureId, user)
	if err == nil {
		if subscribed {
			err = s.store.Unsubscribe(ctx, lectureId, user)
		} else {
			err = s.store.Subscribe(ctx, lectureId, user)
		}
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to toggle subscription", "lecture", lectureId, "user", user, "err", err)
		s.reply(ctx, chatId, "İşlem şu anda gerçekleştirilemiyor.", nil)
		return
	}

	if subscribed {
		s.reply(ctx, chatId, fmt.Sprintf(
			"<b>%s</b> ders bildirim listenizden çıkarıldı.", name,
		), nil)
	} else {
		s.reply(ctx, chatId, fmt.Sprintf(
			"<b>%s</b> ders bildirim listenize eklendi! Bu derse yeni bir not girilince bildirim alacaksınız.", name,
		), nil)
	}
}

// NotifyChanges delivers one message per (change, subscriber) pair.
func (s *Service) NotifyChanges(ctx context.Context, changes []gradestore.Change) {
	for _, change := range changes {
		users, err := s.store.Subscribers(ctx, change.LectureID)
		if err != nil {
			slog.ErrorContext(ctx, "failed to list subscribers", "lecture", change.LectureID, "err", err)
			continue
		}
		for _, user := range users {
			chatId, err := strconv.ParseInt(user, 10, 64)
			if err != nil {
				slog.WarnContext(ctx, "subscriber id is not a chat id", "user", user)
				continue
			}
			s.reply(ctx, chatId, FormatChange(change), nil)
		}
	}
}

// FormatChange renders the notification text for one grade change.
func FormatChange(change gradestore.Change) string {
	return fmt.Sprintf(
		"<b>%s</b> dersinde <b>%s</b> sınavına dair bilgi girildi.",
		change.LectureName, change.ExamName,
	)
}

func (s *Service) reply(ctx context.Context, chatId int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatId, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	_, err := s.bot.Send(msg)
	if err != nil {
		slog.WarnContext(ctx, "failed to send telegram message", "chat", chatId, "err", err)
	}
}

func userId(user *tgbotapi.User) string {
	return strconv.FormatInt(user.ID, 10)
}
