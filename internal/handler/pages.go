package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const notFoundHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Link not found</title>
</head>
<body>
<h1>404</h1>
<p>This short link does not exist.</p>
</body>
</html>
`

const errorHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Something went wrong</title>
</head>
<body>
<h1>500</h1>
<p>Something went wrong. Please try again later.</p>
</body>
</html>
`

// NotFoundPage отдаёт общую 404-страницу
func NotFoundPage(c *gin.Context) {
	c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(notFoundHTML))
}

// ErrorPage отдаёт общую страницу ошибки для браузерных маршрутов
func ErrorPage(c *gin.Context) {
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte(errorHTML))
}
