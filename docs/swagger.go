// Package docs Trip Planner API.
//
// Сервис выбора поездки по карте станций. Клиент карты открывает сессию,
// отправляет события (нажатие на станцию или район, выбор точки прибытия,
// определение положения) и получает состояние выбора, подпись, набор видимых
// станций и команды камеры. После выбора обеих станций сервис строит маршрут
// и сравнивает цену с оценкой такси.
//
// Swagger спецификация генерируется командой `swag init -g cmd/api/main.go -o docs/swagger`
// и регистрируется пакетом docs/swagger.
//
//	Schemes: http, https
//	BasePath: /
//	Version: 1.0.0
//
//	Consumes:
//	- application/json
//
//	Produces:
//	- application/json
//
// swagger:meta
package docs
