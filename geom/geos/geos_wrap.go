package geos

/*
#cgo LDFLAGS: -lgeos_c
#include "geos_c.h"
#include <stdint.h>

extern void goContextNotice(char *msg, uintptr_t userdata);
extern void goContextError(char *msg, uintptr_t userdata);

static void noticeTrampoline(const char *msg, void *userdata) {
	goContextNotice((char *)msg, (uintptr_t)userdata);
}

static void errorTrampoline(const char *msg, void *userdata) {
	goContextError((char *)msg, (uintptr_t)userdata);
}

void setMessageHandlers(GEOSContextHandle_t h, uintptr_t userdata) {
	GEOSContext_setNoticeMessageHandler_r(h, noticeTrampoline, (void *)userdata);
	GEOSContext_setErrorMessageHandler_r(h, errorTrampoline, (void *)userdata);
}
*/
import "C"
