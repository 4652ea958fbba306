// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loop

import (
	"context"

	"code.hybscloud.com/callq"
	"code.hybscloud.com/iox"
)

// Send dispatches fn(arg) to d, waiting with adaptive backoff while the
// ring is full.
//
// Returns ctx.Err() if ctx is done before space frees up; arg is then still
// owned by the caller. Other dispatch errors are returned as is.
func Send(ctx context.Context, d callq.Dispatcher, fn func(arg any), arg any) error {
	var bo iox.Backoff
	for {
		err := d.Dispatch(fn, arg, false)
		if !callq.IsWouldBlock(err) {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		bo.Wait()
	}
}
