package server

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/presbrey/b64/base64"
	"github.com/presbrey/b64/profiles"
)

type encodeRequest struct {
	Profile string `json:"profile" validate:"omitempty,max=64"`
	// Data carries raw bytes in standard padded Base64 so JSON can hold binary input
	Data string `json:"data" validate:"omitempty,base64"`
	Text string `json:"text" validate:"excluded_with=Data"`
}

type encodeResponse struct {
	Profile string `json:"profile,omitempty"`
	Encoded string `json:"encoded"`
	Length  int    `json:"length"`
}

type decodeRequest struct {
	Profile string `json:"profile" validate:"omitempty,max=64"`
	Encoded string `json:"encoded"`
}

type decodeResponse struct {
	Profile string `json:"profile,omitempty"`
	Data    string `json:"data"`
	Text    string `json:"text,omitempty"`
	Length  int    `json:"length"`
}

type lengthResponse struct {
	Profile string `json:"profile,omitempty"`
	Length  int    `json:"length"`
}

type createProfileRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	Symbol62 string `json:"symbol62" validate:"required,len=1"`
	Symbol63 string `json:"symbol63" validate:"required,len=1"`
	Padded   bool   `json:"padded"`
}

func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return err
	}
	return c.Validate(req)
}

func (s *Server) handleEncode(c echo.Context) error {
	var req encodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input := []byte(req.Text)
	if req.Data != "" {
		raw, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "data must be standard base64").SetInternal(err)
		}
		input = raw
	}

	codec, err := s.codecFor(c.Request().Context(), req.Profile)
	if err != nil {
		s.metrics.observe("encode", 0, err)
		return httpError(err)
	}

	dst := make([]byte, codec.EncodedLength(len(input)))
	n, err := codec.Encode(dst, input)
	s.metrics.observe("encode", len(input), err)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, encodeResponse{
		Profile: req.Profile,
		Encoded: string(dst[:n]),
		Length:  n,
	})
}

func (s *Server) handleDecode(c echo.Context) error {
	var req decodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	codec, err := s.codecFor(c.Request().Context(), req.Profile)
	if err != nil {
		s.metrics.observe("decode", 0, err)
		return httpError(err)
	}

	src := []byte(req.Encoded)
	dst := make([]byte, codec.DecodedLength(src))
	n, err := codec.Decode(dst, src)
	s.metrics.observe("decode", len(src), err)
	if err != nil {
		return httpError(err)
	}

	resp := decodeResponse{
		Profile: req.Profile,
		Data:    base64.StdEncoding.EncodeToString(dst[:n]),
		Length:  n,
	}
	if utf8.Valid(dst[:n]) {
		resp.Text = string(dst[:n])
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleEncodedLength(c echo.Context) error {
	n, err := strconv.Atoi(c.QueryParam("n"))
	if err != nil || n < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "n must be a non-negative integer")
	}

	profile := c.QueryParam("profile")
	codec, err := s.codecFor(c.Request().Context(), profile)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lengthResponse{Profile: profile, Length: codec.EncodedLength(n)})
}

func (s *Server) handleDecodedLength(c echo.Context) error {
	var req decodeRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	codec, err := s.codecFor(c.Request().Context(), req.Profile)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, lengthResponse{
		Profile: req.Profile,
		Length:  codec.DecodedLenString(req.Encoded),
	})
}

func (s *Server) handleListProfiles(c echo.Context) error {
	if s.store == nil {
		return c.JSON(http.StatusOK, []profiles.Profile{})
	}
	list, err := s.store.List(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleCreateProfile(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "profile store is not configured")
	}
	var req createProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := s.store.Create(c.Request().Context(), profiles.Profile{
		Name:     req.Name,
		Symbol62: req.Symbol62,
		Symbol63: req.Symbol63,
		Padded:   req.Padded,
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) handleGetProfile(c echo.Context) error {
	if s.store == nil {
		return httpError(profiles.ErrNotFound)
	}
	p, err := s.store.Get(c.Request().Context(), c.Param("name"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteProfile(c echo.Context) error {
	if s.store == nil {
		return httpError(profiles.ErrNotFound)
	}
	if err := s.store.Delete(c.Request().Context(), c.Param("name")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
