// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"clubhouse/internal/authz"
	"clubhouse/internal/content"
	"clubhouse/internal/render"
	"clubhouse/internal/storage"
)

const (
	// maxUploadSize is the maximum allowed photo size (10 MB).
	maxUploadSize = 10 << 20

	galleryPrefix = "gallery"
)

// allowedImageTypes maps accepted MIME types to the extension the object
// is stored under. SVG is refused: it can carry script.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// uploadForm renders the photo upload form.
func (a *Admin) uploadForm(sec authz.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := a.table(w, r, sec)
		if !ok {
			return
		}
		if t.Name != "gallery_images" {
			a.renderer.NotFound(w, r)
			return
		}
		if a.storage == nil {
			redirectWithFlash(w, r, tableBase(sec, t), "error", "Object storage is not configured.")
			return
		}

		a.renderer.Page(w, r, "admin/upload", &render.PageData{
			Title:   "Upload photo",
			Section: sec.Key,
			Data: map[string]any{
				"Base":   tableBase(sec, t),
				"Albums": a.options(r.Context(), "gallery_albums"),
			},
		})
	}
}

// upload stores a photo in object storage and records it in the album.
// Permission is checked before any bytes are accepted.
func (a *Admin) upload(sec authz.Section) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, ok := a.table(w, r, sec)
		if !ok {
			return
		}
		if t.Name != "gallery_images" {
			a.renderer.NotFound(w, r)
			return
		}
		base := tableBase(sec, t)
		if a.storage == nil {
			redirectWithFlash(w, r, base, "error", "Object storage is not configured.")
			return
		}
		if _, err := a.content.Authorize(r.Context(), actor(r), sec.Key); err != nil {
			forbidden(a.renderer, w, r, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize+1024)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			redirectWithFlash(w, r, base+"/upload", "error", "File too large. Maximum size is 10 MB.")
			return
		}
		albumID, err := uuid.Parse(r.FormValue("album_id"))
		if err != nil {
			redirectWithFlash(w, r, base+"/upload", "error", "Choose an album.")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			redirectWithFlash(w, r, base+"/upload", "error", "Choose an image to upload.")
			return
		}
		defer file.Close()

		contentType, ext, err := sniffImage(file)
		if err != nil {
			redirectWithFlash(w, r, base+"/upload", "error", err.Error())
			return
		}

		key := storage.ObjectKey(galleryPrefix, ext, time.Now())
		if err := a.storage.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
			slog.Error("photo upload failed", "key", key, "error", err)
			redirectWithFlash(w, r, base+"/upload", "error", "The photo could not be stored. Please try again.")
			return
		}

		values := content.Values{
			"album_id":  albumID,
			"caption":   strings.TrimSpace(r.FormValue("caption")),
			"s3_key":    key,
			"url":       a.storage.FileURL(key),
			"is_public": r.FormValue("is_public") != "",
		}
		if _, err := a.content.Create(r.Context(), actor(r), t.Name, values); err != nil {
			if delErr := a.storage.Delete(r.Context(), key); delErr != nil {
				slog.Warn("orphaned photo object not deleted", "key", key, "error", delErr)
			}
			if forbidden(a.renderer, w, r, err) {
				return
			}
			msg, _ := mutationFeedback(err)
			redirectWithFlash(w, r, base+"/upload", "error", msg)
			return
		}
		redirectWithFlash(w, r, base, "success", "Photo uploaded.")
	}
}

// uploadError is a message safe to show the uploader.
type uploadError string

func (e uploadError) Error() string { return string(e) }

// sniffImage detects the type of an uploaded file from its content and
// rewinds it for the upload.
func sniffImage(file multipart.File) (contentType, ext string, err error) {
	mt, err := mimetype.DetectReader(file)
	if err != nil {
		return "", "", uploadError("The file could not be read.")
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", "", uploadError("The file could not be read.")
	}
	for m := mt; m != nil; m = m.Parent() {
		if ext, ok := allowedImageTypes[m.String()]; ok {
			return m.String(), ext, nil
		}
	}
	return "", "", uploadError("Only JPEG, PNG, WebP and GIF images are accepted.")
}
