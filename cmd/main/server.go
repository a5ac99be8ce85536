package main

import (
	"log/slog"
	"net/http"

	"github.com/CTAG07/Runesmith/pkg/compilelog"
	"github.com/CTAG07/Runesmith/pkg/runesmith"
)

// Server wires the compiler and its history into the preview API.
type Server struct {
	config      *Config
	logger      *slog.Logger
	rs          *runesmith.Runesmith
	history     *compilelog.Store
	compilerAPI *CompilerAPI
	serverAPI   *ServerAPI
	apiMux      *http.ServeMux
}

// NewServer creates the server and registers every API route. history may be
// nil, in which case the history endpoint reports it as unavailable.
func NewServer(config *Config, logger *slog.Logger, rs *runesmith.Runesmith, history *compilelog.Store, actionChan chan string) *Server {
	server := &Server{
		config:      config,
		logger:      logger,
		rs:          rs,
		history:     history,
		compilerAPI: NewCompilerAPI(rs, history, logger),
		serverAPI:   NewServerAPI(config, actionChan, logger),
		apiMux:      http.NewServeMux(),
	}

	server.compilerAPI.RegisterRoutes(server.apiMux)
	server.serverAPI.RegisterRoutes(server.apiMux)

	return server
}
