package service

import "go.uber.org/zap"

// NoteKind вид уведомления пользователю
type NoteKind string

const (
	NoteInfo    NoteKind = "info"
	NoteSuccess NoteKind = "success"
	NoteError   NoteKind = "error"
)

// Notifier канал пользовательских уведомлений; ядро не знает,
// как именно они отображаются
type Notifier interface {
	Notify(kind NoteKind, title, message string)
}

// NotifierFunc адаптер функции к Notifier
type NotifierFunc func(kind NoteKind, title, message string)

func (f NotifierFunc) Notify(kind NoteKind, title, message string) { f(kind, title, message) }

// ZapNotifier пишет уведомления в лог; реализация по умолчанию,
// когда слой представления не подключён
type ZapNotifier struct {
	Log *zap.Logger
}

func (n *ZapNotifier) Notify(kind NoteKind, title, message string) {
	switch kind {
	case NoteError:
		n.Log.Warn(title, zap.String("message", message))
	default:
		n.Log.Info(title, zap.String("message", message))
	}
}
