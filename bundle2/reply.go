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

package bundle2

// ReplyBundle builds the bundle2 stream a client receives in response to
// unbundle: a reply part reporting success, or an "error:abort" part
// carrying the failure message when err != nil; resolver errors abort
// the push atomically and surface as a bundle2 error part. pushID, if
// non-empty, is echoed back so a client can correlate this reply with
// the push's server-side log lines.
func ReplyBundle(err error, pushID string) []byte {
	w := NewWriter()
	if err != nil {
		params := map[string]string{"message": err.Error()}
		if pushID != "" {
			params["pushid"] = pushID
		}
		w.WritePart(Part{
			Type:      "error:abort",
			Mandatory: true,
			Params:    params,
		})
	} else {
		params := map[string]string{"return": "1"}
		if pushID != "" {
			params["pushid"] = pushID
		}
		w.WritePart(Part{
			Type:      "reply:changegroup",
			Mandatory: false,
			Params:    params,
		})
	}
	return w.Bytes()
}
