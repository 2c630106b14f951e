// Package bom строит производственные заказы по рецептурам (BOM).
//
// Основные элементы:
//   - BuildOrder         — заказ уровня: строка выпуска + строки расхода
//   - Expander           — заказ на смесь (рассол, MB-раствор) и каскад спецзаказов на воду/лёд
//   - MakeSpecialOrder   — спецзаказ WP{item}{context}_{suffix}
//   - Dedupe             — удаление повторяющихся строк журнала
//   - Planner            — многоуровневое планирование от готового продукта вниз
//
// Количества округляются до 4 знаков (domain.Round4). Нечисловое количество
// отбрасывает только тот заказ, который строился; соседние заказы сохраняются.
package bom
