package controller

import (
	"github.com/sharetube/cowatch/internal/connection"
	"github.com/sharetube/cowatch/internal/domain"
	"github.com/sharetube/cowatch/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter[*connection.Conn] {
	mux := wsrouter.New[*connection.Conn]()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw(), c.metricsWSMw(), c.errorWSMw())
	mux.SetValidator(c.validate.Struct)

	wsrouter.Handle(mux, domain.EventChat, c.handleChat)
	wsrouter.Handle(mux, domain.EventEmotion, c.handleEmotion)
	wsrouter.Handle(mux, domain.MessageAddToPlaylist, c.handleAddToPlaylist)

	// owner only
	wsrouter.Handle(mux, domain.EventChangeVideo, c.handleChangeVideo)
	wsrouter.Handle(mux, domain.EventSyncAction, c.handleSyncAction)

	return mux
}
