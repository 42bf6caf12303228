// Copyright 2024 The Mononoke-Go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpapi

import (
	"net/http"

	"github.com/mononoke-go/mononoke/mverrors"
)

// writeError translates an mverrors.Kind into the HTTP status a read-only
// client expects, and writes the error's message as the body.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch mverrors.KindOf(err) {
	case mverrors.NotFound:
		status = http.StatusNotFound
	case mverrors.InvalidInput:
		status = http.StatusBadRequest
	case mverrors.Timeout:
		status = http.StatusGatewayTimeout
	case mverrors.DataCorruption:
		status = http.StatusInternalServerError
	}
	http.Error(w, err.Error(), status)
}

func badRequest(w http.ResponseWriter, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
}
