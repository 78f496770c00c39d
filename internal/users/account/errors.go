// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/taibuivan/secretbox/internal/platform/apperr"
)

// ErrNothingToUpdate is returned when a profile update names no field.
var ErrNothingToUpdate = apperr.New("NOTHING_TO_UPDATE", "At least one field is required", http.StatusBadRequest)
